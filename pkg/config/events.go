package config

// EventKind identifies which setting changed.
type EventKind int

const (
	EndpointChanged EventKind = iota
	ZoomChanged
)

// Event is a discrete change notification. Only the field matching Kind is
// meaningful.
type Event struct {
	Kind     EventKind
	Endpoint string
	Zoom     float64
}

const subscriberBuffer = 8

// Subscribe registers a new change listener. The returned channel is closed
// by Close or Unsubscribe. A slow subscriber loses the oldest undelivered
// event rather than blocking writers.
func (s *Store) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener registered with Subscribe.
func (s *Store) Unsubscribe(ch <-chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		if sub == ch {
			delete(s.subs, sub)
			close(sub)
			return
		}
	}
}

func (s *Store) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		for {
			select {
			case sub <- ev:
			default:
				// Drop the oldest so the latest change always lands.
				select {
				case <-sub:
				default:
				}
				continue
			}
			break
		}
	}
}
