package audit

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kubeflight/eks-gateway/pkg/system"
)

type captureSink struct {
	mu     sync.Mutex
	events []*Event
	err    error
	closed bool
}

func (s *captureSink) Write(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *captureSink) Name() string { return "capture" }

func TestRecord_StampsAndDispatches(t *testing.T) {
	sink := &captureSink{}
	recorder := NewRecorder("prod-cluster", zaptest.NewLogger(t).Sugar(), sink)

	recorder.Record(context.Background(), EventJobCreated, "nightly-report", "batch", "req-1234", nil)

	require.Len(t, sink.events, 1)
	event := sink.events[0]
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, EventJobCreated, event.Type)
	assert.Equal(t, "prod-cluster", event.Cluster)
	assert.Equal(t, "nightly-report", event.Name)
	assert.Equal(t, "batch", event.Namespace)
	assert.Equal(t, "req-1234", event.RequestID)
	assert.Equal(t, "success", event.Outcome)
	assert.Empty(t, event.Error)
}

func TestRecord_FailureOutcomeCarriesClassificationOnly(t *testing.T) {
	sink := &captureSink{}
	recorder := NewRecorder("prod-cluster", zaptest.NewLogger(t).Sugar(), sink)

	recorder.Record(context.Background(), EventJobDeleted, "ghost", "default", "", fmt.Errorf("resource not found: job \"ghost\""))

	require.Len(t, sink.events, 1)
	assert.Equal(t, "failure", sink.events[0].Outcome)
	assert.Contains(t, sink.events[0].Error, "not found")
}

func TestRecord_SinkFailureNeverPropagates(t *testing.T) {
	failing := &captureSink{err: fmt.Errorf("broker unreachable")}
	working := &captureSink{}
	recorder := NewRecorder("prod-cluster", zaptest.NewLogger(t).Sugar(), failing, working)

	recorder.Record(context.Background(), EventNamespaceCreated, "batch", "", "", nil)

	assert.Len(t, working.events, 1)
}

func TestRecord_NilRecorderIsSafe(t *testing.T) {
	var recorder *Recorder
	recorder.Record(context.Background(), EventJobCreated, "x", "", "", nil)
}

func TestClose_ClosesAllSinks(t *testing.T) {
	first := &captureSink{}
	second := &captureSink{}
	recorder := NewRecorder("prod-cluster", zaptest.NewLogger(t).Sugar(), first, second)

	require.NoError(t, recorder.Close())
	assert.True(t, first.closed)
	assert.True(t, second.closed)
}

func TestLogSink_WriteAndClose(t *testing.T) {
	sink := NewLogSink(zaptest.NewLogger(t).Sugar())
	assert.Equal(t, "log", sink.Name())
	assert.NoError(t, sink.Write(context.Background(), &Event{ID: "1", Type: EventJobCreated}))
	assert.NoError(t, sink.Close())
}

func TestRequestIDTravelsThroughContext(t *testing.T) {
	ctx := system.ContextWithRequestID(context.Background(), "req-5678")
	assert.Equal(t, "req-5678", system.RequestIDFromContext(ctx))
	assert.Empty(t, system.RequestIDFromContext(context.Background()))
}
