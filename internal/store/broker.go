package store

import "sync"

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 100

// broker fans out item events to subscribers.
//
// Sends are non-blocking: if a subscriber's buffer is full, the event is
// dropped for that subscriber rather than blocking the append path.
type broker struct {
	mu          sync.RWMutex
	subscribers map[chan ItemEvent]struct{}
	closed      bool
}

func newBroker() *broker {
	return &broker{
		subscribers: make(map[chan ItemEvent]struct{}),
	}
}

func (b *broker) subscribe() <-chan ItemEvent {
	ch := make(chan ItemEvent, subscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers[ch] = struct{}{}
	return ch
}

func (b *broker) unsubscribe(ch <-chan ItemEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// find and delete the channel (need to convert to the right type)
	for subCh := range b.subscribers {
		if subCh == ch {
			delete(b.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

func (b *broker) publish(event ItemEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// subscriber is slow, drop the event
		}
	}
}

// close closes every subscription; later subscriptions get a closed channel.
func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
}
