package channel

import (
	"testing"
	"time"

	"github.com/signalsfoundry/ransim/model"
	"github.com/signalsfoundry/ransim/sim"
)

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	sched := sim.NewScheduler()
	b := NewBroker("indications", sched)

	got := map[string]int{}
	for _, id := range []string{"x1", "x2", "x3"} {
		id := id
		b.Subscribe(id, func(model.Message, string) { got[id]++ })
	}

	if err := b.Publish(model.NewMessage("TEST", nil), "du-1"); err != nil {
		t.Fatalf("Publish error = %v", err)
	}
	if err := sched.Run(time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}

	for _, id := range []string{"x1", "x2", "x3"} {
		if got[id] != 1 {
			t.Fatalf("subscriber %s received %d messages, want 1", id, got[id])
		}
	}
}

func TestSubscriberSetSnapshottedAtPublish(t *testing.T) {
	sched := sim.NewScheduler()
	b := NewBroker("indications", sched)

	early := 0
	b.Subscribe("early", func(model.Message, string) { early++ })

	if err := b.Publish(model.NewMessage("TEST", nil), "du-1"); err != nil {
		t.Fatalf("Publish error = %v", err)
	}

	// Subscribed after the publish was scheduled: must not see this message.
	late := 0
	b.Subscribe("late", func(model.Message, string) { late++ })

	if err := sched.Run(time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if early != 1 {
		t.Fatalf("early subscriber received %d, want 1", early)
	}
	if late != 0 {
		t.Fatalf("late subscriber received %d, want 0", late)
	}
}

func TestUnsubscribeInsideOwnCallbackStillReceivesCurrentMessage(t *testing.T) {
	sched := sim.NewScheduler()
	b := NewBroker("indications", sched)

	count := 0
	b.Subscribe("self", func(model.Message, string) {
		count++
		b.Unsubscribe("self")
	})

	if err := b.Publish(model.NewMessage("TEST", nil), "du-1"); err != nil {
		t.Fatalf("Publish error = %v", err)
	}
	if err := sched.Run(time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if count != 1 {
		t.Fatalf("self-unsubscribing handler invoked %d times, want 1", count)
	}

	// A later publish no longer reaches it.
	if err := b.Publish(model.NewMessage("TEST", nil), "du-1"); err != nil {
		t.Fatalf("Publish error = %v", err)
	}
	if err := sched.Run(2 * time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if count != 1 {
		t.Fatalf("unsubscribed handler invoked %d times total, want 1", count)
	}
}

func TestPanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	sched := sim.NewScheduler()
	rec := &countingRecorder{}
	b := NewBroker("indications", sched, WithBrokerDeliveryRecorder(rec))

	// "a" sorts before "b": the panicking handler runs first.
	b.Subscribe("a", func(model.Message, string) { panic("handler failure") })
	survived := 0
	b.Subscribe("b", func(model.Message, string) { survived++ })

	if err := b.Publish(model.NewMessage("TEST", nil), "du-1"); err != nil {
		t.Fatalf("Publish error = %v", err)
	}
	if err := sched.Run(time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if survived != 1 {
		t.Fatalf("surviving subscriber invoked %d times, want 1", survived)
	}
	if rec.failed != 1 || rec.delivered != 1 {
		t.Fatalf("recorder = %d delivered / %d failed, want 1/1", rec.delivered, rec.failed)
	}
}

func TestResubscribeReplacesCallback(t *testing.T) {
	sched := sim.NewScheduler()
	b := NewBroker("indications", sched)

	first, second := 0, 0
	b.Subscribe("x", func(model.Message, string) { first++ })
	b.Subscribe("x", func(model.Message, string) { second++ })

	if got := b.Subscribers(); got != 1 {
		t.Fatalf("Subscribers() = %d, want 1", got)
	}

	if err := b.Publish(model.NewMessage("TEST", nil), "du-1"); err != nil {
		t.Fatalf("Publish error = %v", err)
	}
	if err := sched.Run(time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if first != 0 || second != 1 {
		t.Fatalf("callbacks invoked first=%d second=%d, want 0 and 1", first, second)
	}
}

func TestBrokerDelayShiftsFanOut(t *testing.T) {
	sched := sim.NewScheduler()
	b := NewBroker("indications", sched, WithBrokerDelay(FixedDelay(2*time.Second)))

	count := 0
	b.Subscribe("x", func(model.Message, string) { count++ })

	if err := b.Publish(model.NewMessage("TEST", nil), "du-1"); err != nil {
		t.Fatalf("Publish error = %v", err)
	}
	if err := sched.Run(time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if count != 0 {
		t.Fatal("fan-out happened before the transmission delay elapsed")
	}
	if err := sched.Run(3 * time.Second); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if count != 1 {
		t.Fatalf("subscriber invoked %d times after delay, want 1", count)
	}
}
