// Package pubsub provides the publish-subscribe mechanism backing the
// control/monitor API's websocket feeds (spec §6): DMX preview frames, the
// active lyric line index, the MIDI monitor stream, and playback status.
package pubsub

import (
	"strconv"
	"sync"
)

// Topic names a subscription feed.
type Topic string

const (
	TopicDMXPreview       Topic = "DMX_PREVIEW_CHANGED"
	TopicPlaybackStatus   Topic = "PLAYBACK_STATUS_CHANGED"
	TopicLyricsIndex      Topic = "LYRICS_INDEX_CHANGED"
	TopicMidiMonitor      Topic = "MIDI_MONITOR_EVENT"
	TopicChaserState      Topic = "CHASER_STATE_CHANGED"
)

// Subscriber is one open feed.
type Subscriber struct {
	ID      string
	Topic   Topic
	Filter  string // e.g. a universe or song ID; "" matches everything
	Channel chan interface{}
}

// PubSub fans out published messages to subscribers of a topic without
// blocking publishers: a subscriber whose channel is full simply misses the
// message (spec §4.11: preview/monitor feeds are best-effort, never allowed
// to stall the show).
type PubSub struct {
	mu          sync.RWMutex
	subscribers map[Topic][]*Subscriber
	nextID      int
}

// New returns an empty PubSub.
func New() *PubSub {
	return &PubSub{subscribers: make(map[Topic][]*Subscriber)}
}

// Subscribe opens a new feed with a bounded buffer.
func (ps *PubSub) Subscribe(topic Topic, filter string, bufferSize int) *Subscriber {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.nextID++
	sub := &Subscriber{
		ID:      strconv.Itoa(ps.nextID),
		Topic:   topic,
		Filter:  filter,
		Channel: make(chan interface{}, bufferSize),
	}
	ps.subscribers[topic] = append(ps.subscribers[topic], sub)
	return sub
}

// Unsubscribe closes and removes a feed.
func (ps *PubSub) Unsubscribe(sub *Subscriber) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	subs := ps.subscribers[sub.Topic]
	for i, s := range subs {
		if s.ID == sub.ID {
			close(s.Channel)
			ps.subscribers[sub.Topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish sends message to every subscriber of topic whose filter is empty
// or matches filter; an empty filter reaches every subscriber of topic.
// Non-blocking: a full subscriber channel drops the message rather than
// stalling the caller.
func (ps *PubSub) Publish(topic Topic, filter string, message interface{}) {
	ps.mu.RLock()
	subs := ps.subscribers[topic]
	ps.mu.RUnlock()

	for _, sub := range subs {
		if sub.Filter == "" || filter == "" || sub.Filter == filter {
			select {
			case sub.Channel <- message:
			default:
			}
		}
	}
}

// SubscriberCount reports how many feeds are open on topic.
func (ps *PubSub) SubscriberCount(topic Topic) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers[topic])
}
