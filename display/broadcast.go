package display

import (
	"sync"

	iface "FrameClassifier/interface"
)

// Broadcaster hands reports to subscribers. Each subscriber has a single
// slot; a slow reader only ever sees the newest report.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan iface.Report]struct{}
	closed bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan iface.Report]struct{})}
}

// Subscribe returns a channel of reports and a func that ends the subscription.
func (b *Broadcaster) Subscribe() (<-chan iface.Report, func()) {
	ch := make(chan iface.Report, 1)
	b.mu.Lock()
	if b.closed {
		close(ch)
		b.mu.Unlock()
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
}

func (b *Broadcaster) Show(r iface.Report) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		for {
			select {
			case ch <- r:
			default:
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
