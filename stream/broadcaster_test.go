package stream

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/councilmesh/core"
)

func TestBroadcaster_EmitReachesAllObservers(t *testing.T) {
	b := New()

	var first, second []string
	b.Subscribe(ObserverFunc(func(ev core.Event) error {
		first = append(first, ev.Type())
		return nil
	}))
	b.Subscribe(ObserverFunc(func(ev core.Event) error {
		second = append(second, ev.Type())
		return nil
	}))

	b.Emit(core.NewEvent("run-1", core.EventAnalysisStarted, nil))
	b.Emit(core.NewEvent("run-1", core.EventCompleted, nil))

	want := []string{core.EventAnalysisStarted, core.EventCompleted}
	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
}

func TestBroadcaster_OrderingPreservedUnderConcurrentEmit(t *testing.T) {
	b := New()

	var mu sync.Mutex
	var first, second []string

	b.Subscribe(ObserverFunc(func(ev core.Event) error {
		mu.Lock()
		first = append(first, ev.ID)
		mu.Unlock()
		return nil
	}))
	b.Subscribe(ObserverFunc(func(ev core.Event) error {
		mu.Lock()
		second = append(second, ev.ID)
		mu.Unlock()
		return nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Emit(core.NewEvent("run-1", core.EventTurnCompleted, nil))
		}()
	}
	wg.Wait()

	// Whatever interleaving occurred, both observers saw the same order.
	assert.Equal(t, first, second)
	assert.Len(t, first, 20)
}

func TestBroadcaster_FailingObserverDroppedSilently(t *testing.T) {
	b := New()

	calls := 0
	b.Subscribe(ObserverFunc(func(core.Event) error {
		calls++
		return errors.New("dead")
	}))

	healthy := 0
	b.Subscribe(ObserverFunc(func(core.Event) error {
		healthy++
		return nil
	}))

	b.Emit(core.NewEvent("run-1", core.EventRoundStarted, nil))
	b.Emit(core.NewEvent("run-1", core.EventRoundStarted, nil))

	assert.Equal(t, 1, calls) // dropped after first failure, never retried
	assert.Equal(t, 2, healthy)
	assert.Equal(t, 1, b.Observers())
}

func TestBroadcaster_SubscriptionCancel(t *testing.T) {
	b := New()

	calls := 0
	sub := b.Subscribe(ObserverFunc(func(core.Event) error {
		calls++
		return nil
	}))

	sub.Cancel()
	sub.Cancel() // idempotent

	b.Emit(core.NewEvent("run-1", core.EventCompleted, nil))
	assert.Zero(t, calls)
	assert.Zero(t, b.Observers())
}

func TestChannelObserver_DeliversEvents(t *testing.T) {
	b := New()

	obs := NewChannelObserver(4)
	b.Subscribe(obs)

	b.Emit(core.NewEvent("run-1", core.EventAnalysisStarted, core.PhaseData{Phase: "analysis"}))

	select {
	case ev := <-obs.Events():
		assert.Equal(t, core.EventAnalysisStarted, ev.Type())

		var data core.PhaseData
		require.NoError(t, ev.Frame.Decode(&data))
		assert.Equal(t, "analysis", data.Phase)
	default:
		t.Fatal("expected buffered event")
	}
}

func TestChannelObserver_SaturationDropsObserver(t *testing.T) {
	b := New()

	obs := NewChannelObserver(1)
	b.Subscribe(obs)

	b.Emit(core.NewEvent("run-1", core.EventRoundStarted, nil)) // fills buffer
	b.Emit(core.NewEvent("run-1", core.EventRoundStarted, nil)) // overflows, dropped

	assert.Zero(t, b.Observers())
}

func TestChannelObserver_ClosedObserverDropped(t *testing.T) {
	b := New()

	obs := NewChannelObserver(4)
	b.Subscribe(obs)
	obs.Close()

	b.Emit(core.NewEvent("run-1", core.EventCompleted, nil))
	assert.Zero(t, b.Observers())
}
