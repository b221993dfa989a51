package notify

import (
	"fmt"
	"testing"

	"MarketDash/internal/model"
)

func TestHub_SubscriptionOrder(t *testing.T) {
	h := NewHub()
	var calls []string
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("sub%d", i)
		h.Subscribe(model.KindQuote, func(_ model.Kind, v any) {
			calls = append(calls, fmt.Sprintf("%s:%v", name, v))
		})
	}
	h.Publish(model.KindQuote, 1)

	want := "[sub0:1 sub1:1 sub2:1]"
	if got := fmt.Sprint(calls); got != want {
		t.Errorf("calls = %s, want %s", got, want)
	}
}

func TestHub_KindIsolation(t *testing.T) {
	h := NewHub()
	var quotes, series int
	h.Subscribe(model.KindQuote, func(model.Kind, any) { quotes++ })
	h.Subscribe(model.KindSeries, func(model.Kind, any) { series++ })

	h.Publish(model.KindQuote, nil)
	h.Publish(model.KindQuote, nil)
	h.Publish(model.KindSeries, nil)

	if quotes != 2 || series != 1 {
		t.Errorf("quotes=%d series=%d, want 2 and 1", quotes, series)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub()
	var a, b int
	subA := h.Subscribe(model.KindOwnership, func(model.Kind, any) { a++ })
	h.Subscribe(model.KindOwnership, func(model.Kind, any) { b++ })

	h.Publish(model.KindOwnership, nil)
	subA.Cancel()
	subA.Cancel()
	h.Publish(model.KindOwnership, nil)

	if a != 1 || b != 2 {
		t.Errorf("a=%d b=%d, want 1 and 2", a, b)
	}
	if n := h.Count(model.KindOwnership); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestHub_UnsubscribeDuringPublish(t *testing.T) {
	h := NewHub()
	var second int
	var first Subscription
	first = h.Subscribe(model.KindQuote, func(model.Kind, any) { first.Cancel() })
	h.Subscribe(model.KindQuote, func(model.Kind, any) { second++ })

	h.Publish(model.KindQuote, nil)
	h.Publish(model.KindQuote, nil)

	if second != 2 {
		t.Errorf("second called %d times, want 2", second)
	}
	if n := h.Count(model.KindQuote); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestHub_SubscribeAll(t *testing.T) {
	h := NewHub()
	seen := map[model.Kind]int{}
	subs := h.SubscribeAll(func(k model.Kind, _ any) { seen[k]++ })
	for _, k := range model.Kinds {
		h.Publish(k, nil)
	}
	if len(seen) != model.NumKinds {
		t.Errorf("seen %d kinds, want %d", len(seen), model.NumKinds)
	}
	for _, s := range subs {
		s.Cancel()
	}
	for _, k := range model.Kinds {
		if h.Count(k) != 0 {
			t.Errorf("kind %s still has subscribers", k)
		}
	}
}

func TestHub_InvalidKind(t *testing.T) {
	h := NewHub()
	s := h.Subscribe(model.Kind(99), func(model.Kind, any) { t.Error("should not be called") })
	h.Publish(model.Kind(99), nil)
	s.Cancel()
}

func TestPublishEach_FreshValuePerCallback(t *testing.T) {
	h := NewHub()
	var got []int
	for i := 0; i < 2; i++ {
		h.Subscribe(model.KindVolume, func(_ model.Kind, v any) {
			s := v.([]int)
			got = append(got, s[0])
			s[0] = -1
		})
	}

	calls := 0
	h.PublishEach(model.KindVolume, func() any {
		calls++
		return []int{7}
	})

	if calls != 2 {
		t.Fatalf("next called %d times, want 2", calls)
	}
	if fmt.Sprint(got) != "[7 7]" {
		t.Errorf("subscribers saw %v, want [7 7]", got)
	}
}
