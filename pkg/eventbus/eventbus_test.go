package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := New[string]()
	ctx := context.Background()

	var mu sync.Mutex
	received := make(map[string][]string)

	bus.Subscribe("orders.alice", func(_ context.Context, event string) error {
		mu.Lock()
		defer mu.Unlock()
		received["first"] = append(received["first"], event)
		return nil
	})
	bus.Subscribe("orders.alice", func(_ context.Context, event string) error {
		mu.Lock()
		defer mu.Unlock()
		received["second"] = append(received["second"], event)
		return nil
	})
	bus.Subscribe("orders.bob", func(_ context.Context, event string) error {
		mu.Lock()
		defer mu.Unlock()
		received["other"] = append(received["other"], event)
		return nil
	})

	bus.Publish(ctx, "orders.alice", "e1")
	bus.Publish(ctx, "orders.alice", "e2")

	mu.Lock()
	defer mu.Unlock()

	if len(received["first"]) != 2 || received["first"][0] != "e1" || received["first"][1] != "e2" {
		t.Fatalf("first subscriber events mismatch! should be [e1 e2] but got %v", received["first"])
	}
	if len(received["second"]) != 2 {
		t.Fatalf("second subscriber count mismatch! should be 2 but got %d", len(received["second"]))
	}
	if len(received["other"]) != 0 {
		t.Fatalf("other topic should receive nothing but got %v", received["other"])
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New[int]()
	ctx := context.Background()

	count := 0
	unsubscribe := bus.Subscribe("t", func(_ context.Context, _ int) error {
		count++
		return nil
	})

	bus.Publish(ctx, "t", 1)
	unsubscribe()
	bus.Publish(ctx, "t", 2)
	// 重复取消订阅应当是幂等的
	unsubscribe()
	bus.Publish(ctx, "t", 3)

	if count != 1 {
		t.Fatalf("delivery count mismatch! should be 1 but got %d", count)
	}
	if got := bus.SubscriberCount("t"); got != 0 {
		t.Fatalf("subscriber count mismatch! should be 0 but got %d", got)
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := New[string]()
	// 不应当 panic
	bus.Publish(context.Background(), "empty", "ignored")
}

func TestHandlerFailureDoesNotBlockOthers(t *testing.T) {
	bus := New[string]()
	ctx := context.Background()

	delivered := []string{}
	bus.Subscribe("t", func(_ context.Context, _ string) error {
		return errors.New("boom")
	})
	bus.Subscribe("t", func(_ context.Context, _ string) error {
		panic("worse boom")
	})
	bus.Subscribe("t", func(_ context.Context, event string) error {
		delivered = append(delivered, event)
		return nil
	})

	bus.Publish(ctx, "t", "e1")

	if len(delivered) != 1 || delivered[0] != "e1" {
		t.Fatalf("healthy subscriber events mismatch! should be [e1] but got %v", delivered)
	}
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	bus := New[int]()
	ctx := context.Background()

	count := 0
	var unsubscribe func()
	unsubscribe = bus.Subscribe("t", func(_ context.Context, _ int) error {
		count++
		unsubscribe()
		return nil
	})

	bus.Publish(ctx, "t", 1)
	bus.Publish(ctx, "t", 2)

	if count != 1 {
		t.Fatalf("delivery count mismatch! should be 1 but got %d", count)
	}
}

func TestSubscriberCount(t *testing.T) {
	bus := New[string]()

	testCases := []struct {
		desc     string
		setup    func() []func()
		topic    string
		expected int
	}{
		{
			"no subscribers",
			func() []func() { return nil },
			"t",
			0,
		},
		{
			"two on same topic",
			func() []func() {
				h := func(_ context.Context, _ string) error { return nil }
				return []func(){bus.Subscribe("t", h), bus.Subscribe("t", h)}
			},
			"t",
			2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			cleanups := tc.setup()
			if got := bus.SubscriberCount(tc.topic); got != tc.expected {
				t.Fatalf("subscriber count mismatch! should be %d but got %d", tc.expected, got)
			}
			for _, c := range cleanups {
				c()
			}
		})
	}
}
