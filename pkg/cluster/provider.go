package cluster

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kubeflight/eks-gateway/pkg/metrics"
)

// DefaultBuildTimeout bounds a full session build attempt (control-plane
// fetch plus token mint plus client assembly).
const DefaultBuildTimeout = 45 * time.Second

// Builder is the session construction step the provider serializes.
type Builder interface {
	Build(ctx context.Context, id Identity) (*ClusterSession, error)
}

// SessionProvider owns the process's single ClusterSession. The session is
// built lazily on first use and rebuilt reactively after an observed
// authentication failure; there is no proactive refresh before expiry, so
// the first call after token expiry pays one failed round trip.
//
// Concurrency: the published session sits behind an RWMutex and is only
// stored once fully built. Builds are deduplicated through a single-flight
// group, so N concurrent first-use calls produce exactly one control-plane
// fetch and one token mint. Readers of a still-valid session never touch
// the build path.
type SessionProvider struct {
	identity     Identity
	builder      Builder
	buildTimeout time.Duration
	log          *zap.SugaredLogger

	mu      sync.RWMutex
	current *ClusterSession

	group singleflight.Group
}

type ProviderOption func(*SessionProvider)

// WithBuildTimeout overrides the per-attempt build deadline.
func WithBuildTimeout(d time.Duration) ProviderOption {
	return func(p *SessionProvider) {
		if d > 0 {
			p.buildTimeout = d
		}
	}
}

func NewSessionProvider(id Identity, builder Builder, log *zap.SugaredLogger, opts ...ProviderOption) *SessionProvider {
	p := &SessionProvider{
		identity:     id,
		builder:      builder,
		buildTimeout: DefaultBuildTimeout,
		log:          log.Named("session-provider"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Session returns the live session, building one if none is published.
// Callers waiting on an in-flight build honor their own ctx cancellation;
// the build itself continues for the benefit of the other waiters.
func (p *SessionProvider) Session(ctx context.Context) (*ClusterSession, error) {
	p.mu.RLock()
	s := p.current
	p.mu.RUnlock()
	if s != nil {
		return s, nil
	}

	ch := p.group.DoChan("session", p.build)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*ClusterSession), nil
	}
}

func (p *SessionProvider) build() (interface{}, error) {
	// A racing call may have published a session while this one queued.
	p.mu.RLock()
	s := p.current
	p.mu.RUnlock()
	if s != nil {
		return s, nil
	}

	// The build outlives any single caller's request context: its result is
	// shared by every waiter, so it runs under its own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), p.buildTimeout)
	defer cancel()

	ses, err := p.builder.Build(ctx, p.identity)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %v", ErrBuildTimeout, p.buildTimeout, err)
		}
		p.log.Errorw("Session build failed", "cluster", p.identity.Name, "error", err)
		return nil, err
	}

	p.mu.Lock()
	p.current = ses
	p.mu.Unlock()
	return ses, nil
}

// Invalidate discards the published session, but only if it still is the
// one the caller observed failing. Racing invalidations for the same stale
// session therefore cause at most one rebuild, and an invalidation that
// lost the race against a completed rebuild is a no-op.
func (p *SessionProvider) Invalidate(stale *ClusterSession) {
	if stale == nil {
		return
	}
	p.mu.Lock()
	if p.current == stale {
		p.current = nil
		metrics.SessionInvalidations.Inc()
		p.log.Warnw("Cluster session invalidated after auth rejection",
			"cluster", p.identity.Name,
			"tokenAge", time.Since(stale.token.IssuedAt).String())
	}
	p.mu.Unlock()
}
