package pubsub

import "testing"

func TestPublishDeliversToMatchingSubscriber(t *testing.T) {
	ps := New()
	sub := ps.Subscribe(TopicLyricsIndex, "song-1", 4)
	ps.Publish(TopicLyricsIndex, "song-1", 3)

	select {
	case v := <-sub.Channel:
		if v != 3 {
			t.Fatalf("got %v, want 3", v)
		}
	default:
		t.Fatal("expected message on matching subscriber")
	}
}

func TestPublishSkipsNonMatchingFilter(t *testing.T) {
	ps := New()
	sub := ps.Subscribe(TopicLyricsIndex, "song-1", 4)
	ps.Publish(TopicLyricsIndex, "song-2", 3)

	select {
	case v := <-sub.Channel:
		t.Fatalf("unexpected message delivered: %v", v)
	default:
	}
}

func TestPublishNeverBlocksOnFullChannel(t *testing.T) {
	ps := New()
	sub := ps.Subscribe(TopicDMXPreview, "", 1)
	ps.Publish(TopicDMXPreview, "", "first")
	ps.Publish(TopicDMXPreview, "", "second") // channel full, must not block

	v := <-sub.Channel
	if v != "first" {
		t.Fatalf("got %v, want first (second dropped, not queued)", v)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ps := New()
	sub := ps.Subscribe(TopicChaserState, "", 1)
	ps.Unsubscribe(sub)

	if ps.SubscriberCount(TopicChaserState) != 0 {
		t.Fatal("expected 0 subscribers after Unsubscribe")
	}
}
