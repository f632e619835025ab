package chainstream

import (
	"context"

	"github.com/gabapcia/chainscan/internal/event"
	"github.com/gabapcia/chainscan/internal/listener"
	"github.com/gabapcia/chainscan/internal/node"
	"github.com/gabapcia/chainscan/internal/pool"
)

// PoolSource borrows the pool's live client for each lookup. The handle is
// released before returning, so it is never held while streaming.
type PoolSource struct {
	pool *pool.Pool[*node.Client]
}

var _ Source = (*PoolSource)(nil)

// FromPool returns a Source over the clients of p.
func FromPool(p *pool.Pool[*node.Client]) *PoolSource {
	return &PoolSource{pool: p}
}

// Receiver returns a new receiver for typ from the live client.
func (s *PoolSource) Receiver(ctx context.Context, typ event.Type) (*listener.Receiver, error) {
	h, err := s.pool.Get(ctx)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	return h.Value().Listeners().Get(typ)
}

// ActiveEvents returns the types subscribed on the live client.
func (s *PoolSource) ActiveEvents(ctx context.Context) ([]event.Type, error) {
	h, err := s.pool.Get(ctx)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	return h.Value().Listeners().ActiveEvents(), nil
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, typ event.Type) (*listener.Receiver, error)

// Receiver calls f.
func (f SourceFunc) Receiver(ctx context.Context, typ event.Type) (*listener.Receiver, error) {
	return f(ctx, typ)
}
