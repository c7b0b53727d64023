package events

import (
	"encoding/json"
	"testing"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("S1")
	other := b.Subscribe("S2")

	b.Publish(Event{Type: PlayerJoined, SessionID: "S1", PlayerName: "Alice"})

	select {
	case data := <-ch:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decoding event: %v", err)
		}
		if ev.Type != PlayerJoined || ev.PlayerName != "Alice" {
			t.Errorf("got %+v", ev)
		}
	default:
		t.Fatal("expected an event for S1")
	}

	select {
	case data := <-other:
		t.Fatalf("S2 subscriber got %s", data)
	default:
	}
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("S1")

	for range 40 {
		b.Publish(Event{Type: GuessSubmitted, SessionID: "S1"})
	}
	if got := len(ch); got != cap(ch) {
		t.Errorf("buffered = %d, want %d", got, cap(ch))
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("S1")
	if n := b.Subscribers("S1"); n != 1 {
		t.Fatalf("Subscribers = %d, want 1", n)
	}

	b.Unsubscribe("S1", ch)
	if n := b.Subscribers("S1"); n != 0 {
		t.Fatalf("Subscribers after unsubscribe = %d, want 0", n)
	}

	b.Publish(Event{Type: PlayerLeft, SessionID: "S1"})
	if len(ch) != 0 {
		t.Error("unsubscribed channel received an event")
	}
}
