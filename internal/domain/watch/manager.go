package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/eventbus"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/monitoring"
	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/errdefs"
)

// Manager owns zero or one active watch.
type Manager struct {
	mu      sync.Mutex
	active  *session
	cfg     Config
	ignore  *matcher
	bus     eventbus.Publisher
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// session is one running watch.
type session struct {
	root     string
	watcher  *fsnotify.Watcher
	debounce *debouncer
	done     chan struct{}
}

// NewManager creates a watch manager that reports on bus.
func NewManager(bus eventbus.Publisher, logger *zap.Logger, cfg Config) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	ignore, invalid := newMatcher(cfg.IgnoredDirs, cfg.IgnorePatterns)
	for _, p := range invalid {
		logger.Warn("dropping invalid ignore pattern", zap.String("pattern", p))
	}

	return &Manager{
		cfg:    cfg,
		ignore: ignore,
		bus:    bus,
		logger: logger,
	}
}

// WithMetrics adds metrics tracking.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Watch replaces any active watch with a recursive watch of path.
func (m *Manager) Watch(path string) error {
	const op = "watch.start"

	m.mu.Lock()
	defer m.mu.Unlock()

	m.teardown()

	root, err := canonicalize(op, path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errdefs.Wrap(errdefs.KindIO, op, err, "failed to create watcher")
	}

	s := &session{
		root:     root,
		watcher:  w,
		debounce: newDebouncer(m.cfg.Debounce, m.cfg.CacheRetention, m.cfg.CacheCeiling),
		done:     make(chan struct{}),
	}
	if err := m.addTree(s, root); err != nil {
		_ = w.Close()
		return errdefs.Wrap(errdefs.KindIO, op, err, "failed to watch %s", root)
	}

	m.active = s
	go m.loop(s)

	dirs := len(w.WatchList())
	m.metrics.SetWatchedDirs(dirs)
	m.logger.Info("watch started", zap.String("root", root), zap.Int("dirs", dirs))
	return nil
}

// StopWatch tears down the active watch and clears its debounce cache.
// Stopping when nothing is watched is not an error.
func (m *Manager) StopWatch() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardown()
	return nil
}

// Status reports the active watch.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return Status{}
	}
	return Status{Active: true, Root: m.active.root, Dirs: len(m.active.watcher.WatchList())}
}

// Close stops the active watch.
func (m *Manager) Close() error {
	return m.StopWatch()
}

// teardown must be called with m.mu held. Once it returns no event from the
// old watch can be published.
func (m *Manager) teardown() {
	s := m.active
	if s == nil {
		return
	}
	m.active = nil

	_ = s.watcher.Close()
	<-s.done
	s.debounce.clear()

	m.metrics.SetWatchedDirs(0)
	m.metrics.SetDebounceKeys(0)
	m.logger.Info("watch stopped", zap.String("root", s.root))
}

func canonicalize(op, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errdefs.Wrap(errdefs.KindInvalid, op, err, "invalid path %q", path)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errdefs.NotFound(op, "path does not exist: %s", path)
		}
		return "", errdefs.Wrap(errdefs.KindIO, op, err, "cannot access %s", path)
	}
	if !info.IsDir() {
		return "", errdefs.Invalid(op, "path is not a directory: %s", path)
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errdefs.Wrap(errdefs.KindIO, op, err, "cannot resolve %s", path)
	}
	return root, nil
}

// addTree registers dir and every non-ignored directory below it.
func (m *Manager) addTree(s *session, dir string) error {
	conf := fastwalk.Config{Follow: false}
	return fastwalk.Walk(&conf, dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && m.ignore.match(s.relative(p)) {
			return filepath.SkipDir
		}
		if err := s.watcher.Add(p); err != nil {
			if p == dir {
				return err
			}
			m.logger.Debug("skipping unwatchable directory", zap.String("dir", p), zap.Error(err))
		}
		return nil
	})
}

func (m *Manager) loop(s *session) {
	defer close(s.done)
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			m.handle(s, ev)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("watch error", zap.String("root", s.root), zap.Error(err))
		}
	}
}

func (m *Manager) handle(s *session, ev fsnotify.Event) {
	kind, ok := kindFor(ev.Op)
	if !ok {
		return
	}

	rel := s.relative(ev.Name)
	if m.ignore.match(rel) {
		m.metrics.RecordWatchEvent("ignored")
		return
	}

	if kind == eventbus.ChangeCreate {
		if info, err := os.Lstat(ev.Name); err == nil && info.IsDir() {
			if err := m.addTree(s, ev.Name); err != nil {
				m.logger.Warn("failed to watch new directory", zap.String("dir", ev.Name), zap.Error(err))
			}
			m.metrics.SetWatchedDirs(len(s.watcher.WatchList()))
		}
	}

	if !s.debounce.allow(debounceKey(ev.Name)) {
		m.metrics.RecordWatchEvent("debounced")
		return
	}
	m.metrics.SetDebounceKeys(s.debounce.size())

	if rel == "" {
		return
	}
	m.bus.Publish(eventbus.TopicFileChanged, eventbus.FileChanged{Path: rel, Kind: kind})
	m.metrics.RecordWatchEvent("emitted")
}

func debounceKey(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

// relative returns p relative to the root with forward slashes. Paths that
// no longer exist fall back to a plain prefix strip.
func (s *session) relative(p string) string {
	if canon, err := filepath.EvalSymlinks(p); err == nil {
		if rel, ok := stripRoot(s.root, canon); ok {
			return rel
		}
	}
	if rel, ok := stripRoot(s.root, filepath.Clean(p)); ok {
		return rel
	}
	return filepath.ToSlash(p)
}

func stripRoot(root, p string) (string, bool) {
	if p == root {
		return "", true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if !strings.HasPrefix(p, prefix) {
		return "", false
	}
	return filepath.ToSlash(p[len(prefix):]), true
}
