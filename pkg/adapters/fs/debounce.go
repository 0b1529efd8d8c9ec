package fs

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/aretw0/voicenotes/pkg/core"
)

// debouncer coalesces bursts of events per slot. Only the last event of a
// burst is delivered, once the slot has been quiet for delay.
type debouncer struct {
	delay time.Duration
	clock clockwork.Clock

	mu      sync.Mutex
	pending map[string]*pendingEvent
	stopped bool
	wg      sync.WaitGroup
}

type pendingEvent struct {
	event core.Event
	timer clockwork.Timer
	gen   uint64
}

func newDebouncer(delay time.Duration, c clockwork.Clock) *debouncer {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	return &debouncer{
		delay:   delay,
		clock:   c,
		pending: make(map[string]*pendingEvent),
	}
}

func (d *debouncer) add(event core.Event, deliver func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	p, ok := d.pending[event.ID]
	if !ok {
		p = &pendingEvent{}
		d.pending[event.ID] = p
	} else if p.timer.Stop() {
		d.wg.Done()
	}
	p.event = event
	p.gen++
	gen := p.gen
	id := event.ID

	d.wg.Add(1)
	p.timer = d.clock.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.fire(id, gen, deliver)
	})
}

func (d *debouncer) fire(id string, gen uint64, deliver func(core.Event)) {
	d.mu.Lock()
	p, ok := d.pending[id]
	if !ok || p.gen != gen || d.stopped {
		d.mu.Unlock()
		return
	}
	delete(d.pending, id)
	event := p.event
	d.mu.Unlock()

	deliver(event)
}

// stopAndWait drops pending events and waits up to timeout for deliveries in flight.
func (d *debouncer) stopAndWait(timeout time.Duration) bool {
	d.mu.Lock()
	d.stopped = true
	for id, p := range d.pending {
		if p.timer.Stop() {
			d.wg.Done()
		}
		delete(d.pending, id)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
