package event

import (
	"sync"
	"testing"
	"time"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := NewBus()

	var got []Event
	bus.Subscribe(TypeVoteSet, func(e Event) {
		got = append(got, e)
	})

	bus.Publish(NewVoteSetEvent(7, "DEFAULT", 200, 1024, time.Second))
	bus.Publish(NewSessionRemovedEvent(7)) // different type, not delivered

	if len(got) != 1 {
		t.Fatalf("received %d events, want 1", len(got))
	}
	ev, ok := got[0].(VoteSetEvent)
	if !ok {
		t.Fatalf("unexpected event type %T", got[0])
	}
	if ev.SessionID != 7 || ev.VoteKind != "DEFAULT" || ev.UclampMin != 200 {
		t.Errorf("event = %+v", ev)
	}
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	bus := NewBus()

	count := 0
	bus.SubscribeAll(func(Event) { count++ })

	bus.Publish(NewSessionAddedEvent(1, "1-1000-1", []int{10}, false))
	bus.Publish(NewSessionStaleEvent(1, "1-1000-1"))
	bus.Publish(NewUniversalBoostEvent(true))

	if count != 3 {
		t.Errorf("wildcard handler saw %d events, want 3", count)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	count := 0
	id := bus.Subscribe(TypeSessionAdded, func(Event) { count++ })

	bus.Publish(NewSessionAddedEvent(1, "a", nil, false))
	if !bus.Unsubscribe(id) {
		t.Fatal("unsubscribe returned false for live subscription")
	}
	bus.Publish(NewSessionAddedEvent(2, "b", nil, false))

	if count != 1 {
		t.Errorf("handler called %d times, want 1", count)
	}
	if bus.Unsubscribe(id) {
		t.Error("unsubscribe returned true for removed subscription")
	}
}

func TestPanickingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewBus()

	bus.Subscribe(TypeVoteExpired, func(Event) { panic("boom") })
	delivered := false
	bus.Subscribe(TypeVoteExpired, func(Event) { delivered = true })

	bus.Publish(NewVoteExpiredEvent(1, "CPU_LOAD_UP"))
	if !delivered {
		t.Error("later handler skipped after a panic")
	}
}

func TestConcurrentPublish(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	count := 0
	bus.Subscribe(TypeSessionStale, func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			bus.Publish(NewSessionStaleEvent(int64(n), "s"))
		}(i)
	}
	wg.Wait()

	if count != 10 {
		t.Errorf("handler called %d times, want 10", count)
	}
}

func TestSubscriptionCount(t *testing.T) {
	bus := NewBus()
	if bus.SubscriptionCount() != 0 {
		t.Fatal("fresh bus has subscriptions")
	}
	bus.Subscribe(TypeVoteSet, func(Event) {})
	bus.SubscribeAll(func(Event) {})
	if got := bus.SubscriptionCount(); got != 2 {
		t.Errorf("subscription count = %d, want 2", got)
	}
}
