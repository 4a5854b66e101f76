package symbolindex

import "testing"

func TestBusPublishFansOutToAllSubscribers(t *testing.T) {
	b := NewBus()

	var gotA, gotB Event
	b.Subscribe(func(e Event) { gotA = e })
	b.Subscribe(func(e Event) { gotB = e })

	want := Event{Kind: EventFileIndexed, File: "a.go", Symbols: 3}
	b.Publish(want)

	if gotA != want {
		t.Errorf("first subscriber received %+v, want %+v", gotA, want)
	}
	if gotB != want {
		t.Errorf("second subscriber received %+v, want %+v", gotB, want)
	}
}

func TestBusPublishWithNoSubscribers(t *testing.T) {
	b := NewBus()
	// Should not panic or block.
	b.Publish(Event{Kind: EventFileRemoved, File: "a.go"})
}
