package ops

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	k8sfake "k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/kubeflight/eks-gateway/pkg/cluster"
)

func existingNamespace(name string) *corev1.Namespace {
	return &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
}

func jobSpec() batchv1.JobSpec {
	return batchv1.JobSpec{
		Template: corev1.PodTemplateSpec{
			Spec: corev1.PodSpec{
				RestartPolicy: corev1.RestartPolicyNever,
				Containers: []corev1.Container{
					{Name: "worker", Image: "busybox", Command: []string{"echo", "done"}},
				},
			},
		},
	}
}

func serviceWithClient(t *testing.T, objects ...runtime.Object) (*Service, *k8sfake.Clientset, *stubSource) {
	client := k8sfake.NewSimpleClientset(objects...)
	source := &stubSource{sessions: []*cluster.ClusterSession{sessionWith(client)}}
	return newTestService(t, source), client, source
}

func TestCreateJob_IntoExistingNamespace(t *testing.T) {
	service, client, _ := serviceWithClient(t, existingNamespace("batch"))

	result, err := service.CreateJob(context.Background(), CreateJobRequest{
		Name:      "nightly-report",
		Namespace: "batch",
		Spec:      jobSpec(),
	})
	require.NoError(t, err)
	assert.Equal(t, "nightly-report", result.JobName)
	assert.Equal(t, "batch", result.Namespace)
	assert.Equal(t, string(NamespaceOutcomeExisted), result.NamespaceOutcome)
	assert.Equal(t, "created", result.Status)

	job, err := client.BatchV1().Jobs("batch").Get(context.Background(), "nightly-report", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, appLabel, job.Labels["app"])
	assert.Equal(t, "nightly-report", job.Labels["job-id"])
	assert.Equal(t, "busybox", job.Spec.Template.Spec.Containers[0].Image)
}

func TestCreateJob_CreatesMissingNamespaceFirst(t *testing.T) {
	service, client, _ := serviceWithClient(t)

	result, err := service.CreateJob(context.Background(), CreateJobRequest{
		Name:      "nightly-report",
		Namespace: "batch",
		Spec:      jobSpec(),
	})
	require.NoError(t, err)
	assert.Equal(t, string(NamespaceOutcomeCreated), result.NamespaceOutcome)

	_, err = client.CoreV1().Namespaces().Get(context.Background(), "batch", metav1.GetOptions{})
	require.NoError(t, err)
}

func TestCreateJob_DefaultsNamespaceAndGeneratesName(t *testing.T) {
	service, _, _ := serviceWithClient(t, existingNamespace("default"))
	service.now = func() time.Time { return time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC) }

	result, err := service.CreateJob(context.Background(), CreateJobRequest{Spec: jobSpec()})
	require.NoError(t, err)
	assert.Equal(t, "default", result.Namespace)
	assert.Equal(t, "job-20260829-103000", result.JobName)
}

func TestCreateJob_DuplicateNameConflicts(t *testing.T) {
	service, _, _ := serviceWithClient(t,
		existingNamespace("default"),
		existingJob("nightly-report", "default"))

	_, err := service.CreateJob(context.Background(), CreateJobRequest{
		Name: "nightly-report",
		Spec: jobSpec(),
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestDeleteJob_UsesForegroundPropagation(t *testing.T) {
	service, client, _ := serviceWithClient(t, existingJob("nightly-report", "default"))

	var opts metav1.DeleteOptions
	client.PrependReactor("delete", "jobs", func(action k8stesting.Action) (bool, runtime.Object, error) {
		opts = action.(k8stesting.DeleteActionImpl).DeleteOptions
		return false, nil, nil
	})

	err := service.DeleteJob(context.Background(), "nightly-report", "")
	require.NoError(t, err)
	require.NotNil(t, opts.PropagationPolicy)
	assert.Equal(t, metav1.DeletePropagationForeground, *opts.PropagationPolicy)

	_, err = client.BatchV1().Jobs("default").Get(context.Background(), "nightly-report", metav1.GetOptions{})
	assert.Error(t, err)
}

func TestDeleteJob_MissingJob(t *testing.T) {
	service, _, _ := serviceWithClient(t)

	err := service.DeleteJob(context.Background(), "ghost", "default")
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestGetJobStatus_StateDerivation(t *testing.T) {
	started := metav1.NewTime(time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC))
	finished := metav1.NewTime(time.Date(2026, 8, 29, 9, 5, 0, 0, time.UTC))

	tests := []struct {
		name   string
		status batchv1.JobStatus
		state  string
	}{
		{"succeeded wins", batchv1.JobStatus{Succeeded: 1, Failed: 2, StartTime: &started, CompletionTime: &finished}, "completed"},
		{"failed over active", batchv1.JobStatus{Failed: 3, Active: 1, StartTime: &started}, "failed"},
		{"still running", batchv1.JobStatus{Active: 2, StartTime: &started}, "running"},
		{"nothing reported yet", batchv1.JobStatus{}, "unknown"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			job := existingJob("nightly-report", "default")
			job.Status = tc.status
			service, _, _ := serviceWithClient(t, job)

			status, err := service.GetJobStatus(context.Background(), "nightly-report", "default")
			require.NoError(t, err)
			assert.Equal(t, tc.state, status.State)
			assert.Equal(t, tc.status.Active, status.Active)
			assert.Equal(t, tc.status.Succeeded, status.Succeeded)
			assert.Equal(t, tc.status.Failed, status.Failed)
		})
	}
}

func TestGetJobStatus_Timestamps(t *testing.T) {
	started := metav1.NewTime(time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC))
	finished := metav1.NewTime(time.Date(2026, 8, 29, 9, 5, 0, 0, time.UTC))
	job := existingJob("nightly-report", "default")
	job.Status = batchv1.JobStatus{Succeeded: 1, StartTime: &started, CompletionTime: &finished}

	service, _, _ := serviceWithClient(t, job)

	status, err := service.GetJobStatus(context.Background(), "nightly-report", "default")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-29T09:00:00Z", status.StartTime)
	assert.Equal(t, "2026-08-29T09:05:00Z", status.CompletionTime)
}

func TestGetJobStatus_MissingJob(t *testing.T) {
	service, _, _ := serviceWithClient(t)

	_, err := service.GetJobStatus(context.Background(), "ghost", "")
	assert.ErrorIs(t, err, ErrResourceNotFound)
}
