package ops

import (
	"context"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/kubeflight/eks-gateway/pkg/audit"
	"github.com/kubeflight/eks-gateway/pkg/cluster"
	"github.com/kubeflight/eks-gateway/pkg/metrics"
	"github.com/kubeflight/eks-gateway/pkg/system"
)

const (
	appLabel   = "eks-gateway"
	jobNameFmt = "20060102-150405"
)

// CreateJobRequest is the body of a job creation call. Name and Namespace
// are optional; Spec is the batch/v1 JobSpec to run.
type CreateJobRequest struct {
	Name      string          `json:"name,omitempty"`
	Namespace string          `json:"namespace,omitempty"`
	Spec      batchv1.JobSpec `json:"spec"`
}

// JobCreated describes a successfully created job, including whether its
// target namespace had to be created on the way.
type JobCreated struct {
	JobName           string `json:"jobName"`
	Namespace         string `json:"namespace"`
	CreationTimestamp string `json:"creationTimestamp,omitempty"`
	NamespaceOutcome  string `json:"namespaceOutcome"`
	Status            string `json:"status"`
}

// JobStatus is the derived status of a job.
type JobStatus struct {
	JobName        string `json:"jobName"`
	Namespace      string `json:"namespace"`
	State          string `json:"state"`
	Active         int32  `json:"active"`
	Succeeded      int32  `json:"succeeded"`
	Failed         int32  `json:"failed"`
	StartTime      string `json:"startTime,omitempty"`
	CompletionTime string `json:"completionTime,omitempty"`
}

// CreateJob ensures the target namespace exists, then creates the job with
// the gateway's tracking labels. An absent name is generated from the
// current timestamp; an absent namespace falls back to "default".
func (s *Service) CreateJob(ctx context.Context, req CreateJobRequest) (*JobCreated, error) {
	name := req.Name
	if name == "" {
		name = "job-" + s.now().UTC().Format(jobNameFmt)
	}
	namespace := req.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}

	start := s.now()
	var created *batchv1.Job
	var nsOutcome NamespaceOutcome

	err := s.withSession(ctx, func(ses *cluster.ClusterSession) error {
		outcome, err := s.ensureNamespace(ctx, ses, namespace)
		if err != nil {
			return err
		}
		nsOutcome = outcome

		job := &batchv1.Job{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: namespace,
				Labels: map[string]string{
					"app":    appLabel,
					"job-id": name,
				},
			},
			Spec: req.Spec,
		}

		created, err = ses.Batch().Jobs(namespace).Create(ctx, job, metav1.CreateOptions{})
		return err
	})
	err = classifyAPIError(err, "job", name)

	requestID := system.RequestIDFromContext(ctx)
	if nsOutcome == NamespaceOutcomeCreated {
		s.recorder.Record(ctx, audit.EventNamespaceEnsured, namespace, "", requestID, nil)
	}
	s.recorder.Record(ctx, audit.EventJobCreated, name, namespace, requestID, err)

	if err != nil {
		metrics.JobOperations.WithLabelValues("create", "error").Inc()
		return nil, err
	}
	metrics.JobOperations.WithLabelValues("create", "success").Inc()
	s.log.Infow("Job created",
		"job", created.Name,
		"namespace", created.Namespace,
		"namespaceOutcome", string(nsOutcome),
		"requestID", requestID,
		"duration", time.Since(start).String())

	return &JobCreated{
		JobName:           created.Name,
		Namespace:         created.Namespace,
		CreationTimestamp: formatTime(&created.CreationTimestamp),
		NamespaceOutcome:  string(nsOutcome),
		Status:            "created",
	}, nil
}

// DeleteJob deletes a job with Foreground propagation so dependent pods are
// removed before the job object disappears.
func (s *Service) DeleteJob(ctx context.Context, name, namespace string) error {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	start := s.now()
	propagation := metav1.DeletePropagationForeground
	err := s.withSession(ctx, func(ses *cluster.ClusterSession) error {
		return ses.Batch().Jobs(namespace).Delete(ctx, name, metav1.DeleteOptions{
			PropagationPolicy: &propagation,
		})
	})
	err = classifyAPIError(err, "job", name)

	requestID := system.RequestIDFromContext(ctx)
	s.recorder.Record(ctx, audit.EventJobDeleted, name, namespace, requestID, err)

	if err != nil {
		metrics.JobOperations.WithLabelValues("delete", "error").Inc()
		return err
	}
	metrics.JobOperations.WithLabelValues("delete", "success").Inc()
	s.log.Infow("Job deleted",
		"job", name,
		"namespace", namespace,
		"requestID", requestID,
		"duration", time.Since(start).String())
	return nil
}

// GetJobStatus reads a job and derives its state from the status counts.
func (s *Service) GetJobStatus(ctx context.Context, name, namespace string) (*JobStatus, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	var job *batchv1.Job
	err := s.withSession(ctx, func(ses *cluster.ClusterSession) error {
		var opErr error
		job, opErr = ses.Batch().Jobs(namespace).Get(ctx, name, metav1.GetOptions{})
		return opErr
	})
	err = classifyAPIError(err, "job", name)

	s.recorder.Record(ctx, audit.EventJobStatusRead, name, namespace, system.RequestIDFromContext(ctx), err)

	if err != nil {
		metrics.JobOperations.WithLabelValues("status", "error").Inc()
		return nil, err
	}
	metrics.JobOperations.WithLabelValues("status", "success").Inc()

	status := job.Status
	return &JobStatus{
		JobName:        job.Name,
		Namespace:      job.Namespace,
		State:          deriveJobState(status),
		Active:         status.Active,
		Succeeded:      status.Succeeded,
		Failed:         status.Failed,
		StartTime:      formatTime(status.StartTime),
		CompletionTime: formatTime(status.CompletionTime),
	}, nil
}

// deriveJobState collapses the status counters into a single state.
// Succeeded wins over failed, failed over active; no activity at all is
// reported as unknown rather than guessed.
func deriveJobState(status batchv1.JobStatus) string {
	switch {
	case status.Succeeded > 0:
		return "completed"
	case status.Failed > 0:
		return "failed"
	case status.Active > 0:
		return "running"
	default:
		return "unknown"
	}
}

func formatTime(t *metav1.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
