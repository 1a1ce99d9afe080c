package events_test

import (
	"testing"

	"github.com/mrwong99/interactink/pkg/interactink/events"
)

func TestBus_PublishInvokesSubscribers(t *testing.T) {
	t.Parallel()

	b := events.NewBus[int]()
	var got []int
	b.Subscribe(func(v int) { got = append(got, v) })
	b.Subscribe(func(v int) { got = append(got, v*10) })

	b.Publish(3)

	if len(got) != 2 || got[0] != 3 || got[1] != 30 {
		t.Fatalf("Publish: got %v, want [3 30]", got)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	t.Parallel()

	b := events.NewBus[string]()
	var calls int
	unsub := b.Subscribe(func(string) { calls++ })
	b.Publish("a")
	unsub()
	b.Publish("b")

	if calls != 1 {
		t.Fatalf("calls after unsubscribe = %d, want 1", calls)
	}
}

func TestBus_PublishRecoversSubscriberPanic(t *testing.T) {
	t.Parallel()

	b := events.NewBus[int]()
	var secondRan bool
	b.Subscribe(func(int) { panic("boom") })
	b.Subscribe(func(int) { secondRan = true })

	b.Publish(1)

	if !secondRan {
		t.Fatal("second subscriber did not run after first panicked")
	}
}
