// Package audit records every resource operation the gateway performs
// against the cluster. Events always reach the structured log; a Kafka
// topic can be added as a second sink for durable trails.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kubeflight/eks-gateway/pkg/metrics"
)

// EventType names the operation that was performed.
type EventType string

const (
	EventJobCreated       EventType = "job.created"
	EventJobDeleted       EventType = "job.deleted"
	EventJobStatusRead    EventType = "job.status_read"
	EventNamespaceCreated EventType = "namespace.created"
	EventNamespaceDeleted EventType = "namespace.deleted"
	EventNamespaceEnsured EventType = "namespace.ensured"
)

// Event is one recorded operation. Error carries only a classification
// message, never credential material.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Cluster   string    `json:"cluster"`
	Name      string    `json:"name"`
	Namespace string    `json:"namespace,omitempty"`
	RequestID string    `json:"requestID,omitempty"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
}

// Sink is a destination for audit events.
type Sink interface {
	Write(ctx context.Context, event *Event) error
	Close() error
	Name() string
}

// LogSink writes audit events to the structured logger.
type LogSink struct {
	log *zap.SugaredLogger
}

func NewLogSink(log *zap.SugaredLogger) *LogSink {
	return &LogSink{log: log.Named("audit")}
}

func (s *LogSink) Write(_ context.Context, event *Event) error {
	s.log.Infow("Audit event",
		"eventID", event.ID,
		"type", string(event.Type),
		"cluster", event.Cluster,
		"name", event.Name,
		"namespace", event.Namespace,
		"requestID", event.RequestID,
		"outcome", event.Outcome,
		"error", event.Error)
	return nil
}

func (s *LogSink) Close() error { return nil }

func (s *LogSink) Name() string { return "log" }

// Recorder fans events out to all configured sinks. Sink failures are
// logged and counted but never fail the operation being audited.
type Recorder struct {
	cluster string
	log     *zap.SugaredLogger

	mu    sync.RWMutex
	sinks []Sink
}

func NewRecorder(cluster string, log *zap.SugaredLogger, sinks ...Sink) *Recorder {
	return &Recorder{cluster: cluster, log: log.Named("audit-recorder"), sinks: sinks}
}

// Record stamps and dispatches an event; safe for concurrent use.
func (r *Recorder) Record(ctx context.Context, typ EventType, name, namespace, requestID string, opErr error) {
	if r == nil {
		return
	}
	event := &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Type:      typ,
		Cluster:   r.cluster,
		Name:      name,
		Namespace: namespace,
		RequestID: requestID,
		Outcome:   "success",
	}
	if opErr != nil {
		event.Outcome = "failure"
		event.Error = opErr.Error()
	}

	r.mu.RLock()
	sinks := r.sinks
	r.mu.RUnlock()

	for _, sink := range sinks {
		if err := sink.Write(ctx, event); err != nil {
			metrics.AuditEventsFailed.WithLabelValues(sink.Name()).Inc()
			r.log.Warnw("Audit sink write failed", "sink", sink.Name(), "eventID", event.ID, "error", err)
			continue
		}
		metrics.AuditEventsWritten.WithLabelValues(sink.Name()).Inc()
	}
}

// Close shuts down all sinks.
func (r *Recorder) Close() error {
	r.mu.Lock()
	sinks := r.sinks
	r.sinks = nil
	r.mu.Unlock()

	var firstErr error
	for _, sink := range sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
