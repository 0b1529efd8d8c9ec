// Package lifecycle exposes voicenotes event streams as a lifecycle.Source so
// they can drive a lifecycle-managed application loop.
package lifecycle

import (
	"context"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/voicenotes/pkg/core"
)

type noteSource struct {
	inputs []<-chan core.Event
	out    chan lifecycle.Event
}

// NewSource merges one or more event channels (typically Store.Watch and
// Storage.Watch) into a single lifecycle.Source. Events closes once every
// input has closed or the start context is done.
func NewSource(inputs ...<-chan core.Event) lifecycle.Source {
	return &noteSource{
		inputs: inputs,
		out:    make(chan lifecycle.Event),
	}
}

func (s *noteSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *noteSource) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(len(s.inputs))
	for _, in := range s.inputs {
		lifecycle.Go(ctx, func(ctx context.Context) error {
			defer wg.Done()
			forward(ctx, in, s.out)
			return nil
		})
	}
	lifecycle.Go(ctx, func(context.Context) error {
		wg.Wait()
		close(s.out)
		return nil
	})
	return nil
}

func forward(ctx context.Context, in <-chan core.Event, out chan<- lifecycle.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}
}
