package ops

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/kubeflight/eks-gateway/pkg/audit"
	"github.com/kubeflight/eks-gateway/pkg/cluster"
	"github.com/kubeflight/eks-gateway/pkg/metrics"
)

// DefaultNamespace is the target namespace when a request names none.
const DefaultNamespace = "default"

// SessionSource hands out the live cluster session and accepts
// invalidations of sessions observed failing authentication.
type SessionSource interface {
	Session(ctx context.Context) (*cluster.ClusterSession, error)
	Invalidate(stale *cluster.ClusterSession)
}

// Service performs Job and Namespace operations against the cluster.
type Service struct {
	sessions SessionSource
	recorder *audit.Recorder
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewService(sessions SessionSource, recorder *audit.Recorder, log *zap.SugaredLogger) *Service {
	return &Service{
		sessions: sessions,
		recorder: recorder,
		log:      log.Named("ops"),
		now:      time.Now,
	}
}

// withSession runs op with the current session. A 401/403 from the cluster
// invalidates that session and re-runs op once against a rebuilt one; a
// second rejection is terminal and surfaces ErrAuthExpiredOrRejected.
func (s *Service) withSession(ctx context.Context, op func(ses *cluster.ClusterSession) error) error {
	ses, err := s.sessions.Session(ctx)
	if err != nil {
		return err
	}

	err = op(ses)
	if !isAuthRejection(err) {
		return err
	}

	metrics.AuthRejections.Inc()
	s.log.Warnw("Cluster rejected session credentials, rebuilding",
		"cluster", ses.Identity().Name,
		"tokenExpiresAt", ses.Token().ExpiresAt().UTC().Format(time.RFC3339))
	s.sessions.Invalidate(ses)

	fresh, err := s.sessions.Session(ctx)
	if err != nil {
		return err
	}

	err = op(fresh)
	if isAuthRejection(err) {
		metrics.AuthRejections.Inc()
		return fmt.Errorf("%w: %v", cluster.ErrAuthExpiredOrRejected, err)
	}
	return err
}

func isAuthRejection(err error) bool {
	return err != nil && (apierrors.IsUnauthorized(err) || apierrors.IsForbidden(err))
}

// classifyAPIError maps cluster API errors onto the package's sentinels so
// callers classify with errors.Is instead of inspecting status codes.
func classifyAPIError(err error, resourceType, name string) error {
	switch {
	case err == nil:
		return nil
	case apierrors.IsNotFound(err):
		return fmt.Errorf("%w: %s %q", ErrResourceNotFound, resourceType, name)
	case apierrors.IsAlreadyExists(err):
		return fmt.Errorf("%w: %s %q", ErrAlreadyExists, resourceType, name)
	default:
		return err
	}
}
