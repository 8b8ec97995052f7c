package ops

import (
	"context"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/kubeflight/eks-gateway/pkg/audit"
	"github.com/kubeflight/eks-gateway/pkg/cluster"
	"github.com/kubeflight/eks-gateway/pkg/metrics"
	"github.com/kubeflight/eks-gateway/pkg/system"
)

// NamespaceOutcome reports what ensureNamespace found.
type NamespaceOutcome string

const (
	NamespaceOutcomeCreated NamespaceOutcome = "created"
	NamespaceOutcomeExisted NamespaceOutcome = "already-existed"
)

// CreateNamespaceRequest is the body of a namespace creation call.
type CreateNamespaceRequest struct {
	Name string `json:"name"`
}

// NamespaceDetails describes a namespace after a create or read.
type NamespaceDetails struct {
	Name              string `json:"name"`
	CreationTimestamp string `json:"creationTimestamp,omitempty"`
	Phase             string `json:"phase,omitempty"`
	Status            string `json:"status"`
}

// CreateNamespace creates a namespace and fails with ErrAlreadyExists when
// one of that name is already present.
func (s *Service) CreateNamespace(ctx context.Context, name string) (*NamespaceDetails, error) {
	start := s.now()
	var created *corev1.Namespace
	err := s.withSession(ctx, func(ses *cluster.ClusterSession) error {
		var opErr error
		created, opErr = ses.Core().Namespaces().Create(ctx, namespaceObject(name), metav1.CreateOptions{})
		return opErr
	})
	err = classifyAPIError(err, "namespace", name)

	requestID := system.RequestIDFromContext(ctx)
	s.recorder.Record(ctx, audit.EventNamespaceCreated, name, "", requestID, err)

	if err != nil {
		metrics.NamespaceOperations.WithLabelValues("create", "error").Inc()
		return nil, err
	}
	metrics.NamespaceOperations.WithLabelValues("create", "success").Inc()
	s.log.Infow("Namespace created",
		"namespace", created.Name,
		"requestID", requestID,
		"duration", time.Since(start).String())

	return &NamespaceDetails{
		Name:              created.Name,
		CreationTimestamp: formatTime(&created.CreationTimestamp),
		Status:            "created",
	}, nil
}

// GetNamespace reads a namespace.
func (s *Service) GetNamespace(ctx context.Context, name string) (*NamespaceDetails, error) {
	var ns *corev1.Namespace
	err := s.withSession(ctx, func(ses *cluster.ClusterSession) error {
		var opErr error
		ns, opErr = ses.Core().Namespaces().Get(ctx, name, metav1.GetOptions{})
		return opErr
	})
	err = classifyAPIError(err, "namespace", name)
	if err != nil {
		metrics.NamespaceOperations.WithLabelValues("get", "error").Inc()
		return nil, err
	}
	metrics.NamespaceOperations.WithLabelValues("get", "success").Inc()

	return &NamespaceDetails{
		Name:              ns.Name,
		CreationTimestamp: formatTime(&ns.CreationTimestamp),
		Phase:             string(ns.Status.Phase),
		Status:            "active",
	}, nil
}

// DeleteNamespace deletes a namespace with Foreground propagation.
func (s *Service) DeleteNamespace(ctx context.Context, name string) error {
	start := s.now()
	propagation := metav1.DeletePropagationForeground
	err := s.withSession(ctx, func(ses *cluster.ClusterSession) error {
		return ses.Core().Namespaces().Delete(ctx, name, metav1.DeleteOptions{
			PropagationPolicy: &propagation,
		})
	})
	err = classifyAPIError(err, "namespace", name)

	requestID := system.RequestIDFromContext(ctx)
	s.recorder.Record(ctx, audit.EventNamespaceDeleted, name, "", requestID, err)

	if err != nil {
		metrics.NamespaceOperations.WithLabelValues("delete", "error").Inc()
		return err
	}
	metrics.NamespaceOperations.WithLabelValues("delete", "success").Inc()
	s.log.Infow("Namespace deleted",
		"namespace", name,
		"requestID", requestID,
		"duration", time.Since(start).String())
	return nil
}

// ensureNamespace makes sure the namespace exists before a job lands in it.
// The existence check runs first so the common case stays a single read;
// a create that loses a race against a concurrent creator still counts as
// already-existed.
func (s *Service) ensureNamespace(ctx context.Context, ses *cluster.ClusterSession, name string) (NamespaceOutcome, error) {
	_, err := ses.Core().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return NamespaceOutcomeExisted, nil
	}
	if !apierrors.IsNotFound(err) {
		return "", err
	}

	s.log.Infow("Target namespace missing, creating it", "namespace", name)
	_, err = ses.Core().Namespaces().Create(ctx, namespaceObject(name), metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		return NamespaceOutcomeExisted, nil
	}
	if err != nil {
		return "", err
	}
	return NamespaceOutcomeCreated, nil
}

func namespaceObject(name string) *corev1.Namespace {
	return &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: name},
	}
}
