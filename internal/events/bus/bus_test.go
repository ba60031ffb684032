package bus

import (
	"errors"
	"testing"
)

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	called := 0
	sub, err := b.Subscribe(TypeDispatch, func(e Event) error {
		called++
		if e.Data() != 42 {
			t.Errorf("unexpected payload: %v", e.Data())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err = b.Publish(NewEvent(TypeDispatch, "tester", 42, nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if called != 1 {
		t.Fatalf("handler called %d times", called)
	}
	if !sub.IsActive() {
		t.Fatal("subscription should be active")
	}
}

func TestTopicIsolation(t *testing.T) {
	b := New()
	count1 := 0
	count2 := 0
	_, _ = b.SubscribeTopic("shapes", TypeDispatch, func(e Event) error { count1++; return nil })
	_, _ = b.SubscribeTopic("entities", TypeDispatch, func(e Event) error { count2++; return nil })
	_ = b.PublishToTopic("shapes", NewEvent(TypeDispatch, "src", nil, nil))
	if count1 != 1 || count2 != 0 {
		t.Fatalf("topic isolation failed: %d %d", count1, count2)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	count := 0
	sub, err := b.Subscribe(TypeRegistration, func(e Event) error { count++; return nil })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	_ = b.Publish(NewEvent(TypeRegistration, "src", nil, nil))
	if err = b.Unsubscribe(sub); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	_ = b.Publish(NewEvent(TypeRegistration, "src", nil, nil))
	if count != 1 {
		t.Fatalf("delivery after unsubscribe: %d", count)
	}
	if sub.IsActive() {
		t.Fatal("subscription should be inactive")
	}
}

func TestHandlerErrorsAreAggregated(t *testing.T) {
	b := New()
	fail := errors.New("fail")
	_, _ = b.Subscribe(TypeDispatch, func(e Event) error { return fail })
	_, _ = b.Subscribe(TypeDispatch, func(e Event) error { return nil })
	err := b.Publish(NewEvent(TypeDispatch, "src", nil, nil))
	if !errors.Is(err, fail) {
		t.Fatalf("expected aggregated handler error, got %v", err)
	}
}

func TestMetricsCounters(t *testing.T) {
	b := New()
	_, _ = b.Subscribe(TypeDispatch, func(e Event) error { return nil })
	_ = b.Publish(NewEvent(TypeDispatch, "src", nil, nil))
	_ = b.Publish(NewEvent(TypeDispatch, "src", nil, nil))
	m := b.Metrics()
	if m.Published != 2 || m.DeliveredHandlers != 2 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
	if m.SubscribersActive != 1 {
		t.Fatalf("unexpected subscriber count: %d", m.SubscribersActive)
	}
}

func TestUnsubscribeNil(t *testing.T) {
	b := New()
	if err := b.Unsubscribe(nil); err != nil {
		t.Fatalf("unsubscribe nil: %v", err)
	}
}
