package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/infrastructure/monitoring"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestPublishFanOut(t *testing.T) {
	bus := New()
	defer bus.Close()

	ctx := context.Background()
	a := bus.Subscribe(ctx)
	b := bus.Subscribe(ctx)

	n := bus.Publish(TopicFileChanged, FileChanged{Path: "main.tex", Kind: ChangeModify})
	assert.Equal(t, 2, n)

	for _, ch := range []<-chan Event{a, b} {
		ev := receive(t, ch)
		assert.Equal(t, TopicFileChanged, ev.Type)
		assert.NotEmpty(t, ev.ID)
		assert.Equal(t, FileChanged{Path: "main.tex", Kind: ChangeModify}, ev.Payload)
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := New()
	defer bus.Close()

	assert.Equal(t, 0, bus.Publish(TopicProcessStatus, ProcessStatus{State: StateStopped}))
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	metrics := monitoring.NewMetrics(nil)
	bus := NewWithBuffer(2).WithMetrics(metrics)
	defer bus.Close()

	_ = bus.Subscribe(context.Background())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Publish(TopicTerminalOutput, TerminalOutput{SessionID: "pty_1", Data: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	assert.Equal(t, 8.0, testutil.ToFloat64(metrics.EventsDropped.WithLabelValues(string(TopicTerminalOutput))))
}

func TestPublishPreservesOrder(t *testing.T) {
	bus := New()
	defer bus.Close()

	ch := bus.Subscribe(context.Background())
	for i := 0; i < 50; i++ {
		bus.Publish(TopicTerminalExit, TerminalExit{SessionID: "pty_1", Code: i})
	}

	for i := 0; i < 50; i++ {
		ev := receive(t, ch)
		assert.Equal(t, i, ev.Payload.(TerminalExit).Code)
	}
}

func TestSubscribeCancel(t *testing.T) {
	bus := New()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := bus.Subscribe(ctx)
	require.Equal(t, 1, bus.SubscriberCount())

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestCloseIsIdempotent(t *testing.T) {
	bus := New()
	ch := bus.Subscribe(context.Background())

	bus.Close()
	bus.Close()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, bus.Publish(TopicFileChanged, nil))

	late := bus.Subscribe(context.Background())
	_, ok = <-late
	assert.False(t, ok)
}

func TestConcurrentPublishers(t *testing.T) {
	bus := NewWithBuffer(1000)
	defer bus.Close()

	ch := bus.Subscribe(context.Background())

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				bus.Publish(TopicProcessLog, ProcessLog{Type: StreamStdout, Message: "line"})
			}
		}()
	}
	wg.Wait()

	assert.Len(t, ch, 400)
}
