package watch

import (
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// debouncer remembers when each path last produced an event. Its size stays
// at or below ceiling+1.
type debouncer struct {
	mu        sync.Mutex
	cache     *gocache.Cache
	window    time.Duration
	retention time.Duration
	ceiling   int
	now       func() time.Time
}

func newDebouncer(window, retention time.Duration, ceiling int) *debouncer {
	return &debouncer{
		// No janitor: pruning happens inline when the ceiling is crossed.
		cache:     gocache.New(retention, 0),
		window:    window,
		retention: retention,
		ceiling:   ceiling,
		now:       time.Now,
	}
}

// allow reports whether an event for key passes the window and records it
// if so.
func (d *debouncer) allow(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if d.cache.ItemCount() > d.ceiling {
		d.prune(now)
	}

	if v, ok := d.cache.Get(key); ok {
		if now.Sub(v.(time.Time)) < d.window {
			return false
		}
	}
	d.cache.Set(key, now, gocache.DefaultExpiration)
	return true
}

// prune drops entries past retention, then the oldest until the cache is
// back at the ceiling.
func (d *debouncer) prune(now time.Time) {
	items := d.cache.Items()
	d.cache.DeleteExpired()

	type entry struct {
		key string
		at  time.Time
	}
	live := make([]entry, 0, len(items))
	for key, item := range items {
		at := item.Object.(time.Time)
		if now.Sub(at) >= d.retention {
			d.cache.Delete(key)
			continue
		}
		live = append(live, entry{key, at})
	}
	if len(live) <= d.ceiling {
		return
	}

	sort.Slice(live, func(i, j int) bool {
		if live[i].at.Equal(live[j].at) {
			return live[i].key < live[j].key
		}
		return live[i].at.Before(live[j].at)
	})
	for _, e := range live[:len(live)-d.ceiling] {
		d.cache.Delete(e.key)
	}
}

func (d *debouncer) size() int {
	return d.cache.ItemCount()
}

func (d *debouncer) clear() {
	d.cache.Flush()
}
