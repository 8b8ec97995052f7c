package cluster

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	k8sfake "k8s.io/client-go/kubernetes/fake"
)

type countingBuilder struct {
	mu     sync.Mutex
	builds int32
	delay  time.Duration
	errs   []error
}

func (b *countingBuilder) Build(ctx context.Context, id Identity) (*ClusterSession, error) {
	atomic.AddInt32(&b.builds, 1)
	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	b.mu.Lock()
	var err error
	if len(b.errs) > 0 {
		err, b.errs = b.errs[0], b.errs[1:]
	}
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return NewSession(id, &EndpointInfo{Endpoint: "https://example.eks.amazonaws.com"},
		BearerToken{Value: "k8s-aws-v1.aGVsbG8", IssuedAt: time.Now(), TTL: 14 * time.Minute},
		k8sfake.NewSimpleClientset()), nil
}

func newTestProvider(t *testing.T, b Builder, opts ...ProviderOption) *SessionProvider {
	return NewSessionProvider(testIdentity(), b, zaptest.NewLogger(t).Sugar(), opts...)
}

func TestSession_ConcurrentFirstUseBuildsExactlyOnce(t *testing.T) {
	builder := &countingBuilder{delay: 30 * time.Millisecond}
	provider := newTestProvider(t, builder)

	const callers = 16
	sessions := make([]*ClusterSession, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := provider.Session(context.Background())
			require.NoError(t, err)
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&builder.builds))
	for i := 1; i < callers; i++ {
		assert.Same(t, sessions[0], sessions[i])
	}
}

func TestSession_FailedBuildIsNotCached(t *testing.T) {
	builder := &countingBuilder{errs: []error{fmt.Errorf("%w: throttled", ErrUpstreamUnavailable)}}
	provider := newTestProvider(t, builder)

	_, err := provider.Session(context.Background())
	require.ErrorIs(t, err, ErrUpstreamUnavailable)

	s, err := provider.Session(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.Equal(t, int32(2), atomic.LoadInt32(&builder.builds))
}

func TestSession_ReusedUntilInvalidated(t *testing.T) {
	builder := &countingBuilder{}
	provider := newTestProvider(t, builder)

	first, err := provider.Session(context.Background())
	require.NoError(t, err)
	second, err := provider.Session(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&builder.builds))
}

func TestInvalidate_OnlyDiscardsTheObservedSession(t *testing.T) {
	builder := &countingBuilder{}
	provider := newTestProvider(t, builder)

	stale, err := provider.Session(context.Background())
	require.NoError(t, err)

	provider.Invalidate(stale)
	fresh, err := provider.Session(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, stale, fresh)
	assert.Equal(t, int32(2), atomic.LoadInt32(&builder.builds))

	// A straggler invalidating the already-replaced session must not tear
	// down the fresh one.
	provider.Invalidate(stale)
	still, err := provider.Session(context.Background())
	require.NoError(t, err)
	assert.Same(t, fresh, still)
	assert.Equal(t, int32(2), atomic.LoadInt32(&builder.builds))
}

func TestInvalidate_RacingInvalidationsCauseOneRebuild(t *testing.T) {
	builder := &countingBuilder{}
	provider := newTestProvider(t, builder)

	stale, err := provider.Session(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			provider.Invalidate(stale)
			_, err := provider.Session(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// One initial build plus at most one rebuild for the shared stale session.
	assert.LessOrEqual(t, atomic.LoadInt32(&builder.builds), int32(2))
}

func TestInvalidate_NilIsANoOp(t *testing.T) {
	provider := newTestProvider(t, &countingBuilder{})
	provider.Invalidate(nil)
}

func TestSession_BuildTimeout(t *testing.T) {
	builder := &countingBuilder{delay: time.Second}
	provider := newTestProvider(t, builder, WithBuildTimeout(20*time.Millisecond))

	_, err := provider.Session(context.Background())
	assert.ErrorIs(t, err, ErrBuildTimeout)
}

func TestSession_WaiterHonorsItsOwnCancellation(t *testing.T) {
	builder := &countingBuilder{delay: 200 * time.Millisecond}
	provider := newTestProvider(t, builder)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := provider.Session(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The shared build keeps running and later callers get its result.
	s, err := provider.Session(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, s)
}
