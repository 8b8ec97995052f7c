package ops

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kubeflight/eks-gateway/pkg/apiresponses"
	"github.com/kubeflight/eks-gateway/pkg/cluster"
)

// respondOperationError is the single place operation errors become HTTP
// responses. The core packages expose only sentinel errors; status codes
// exist exclusively here.
func respondOperationError(c *gin.Context, operation, resourceType, resourceName string, err error, log *zap.SugaredLogger) {
	switch {
	case errors.Is(err, ErrResourceNotFound):
		apiresponses.RespondNotFound(c, resourceType, resourceName)
	case errors.Is(err, ErrAlreadyExists):
		apiresponses.RespondConflict(c, err.Error())
	case errors.Is(err, cluster.ErrConfigurationMissing):
		apiresponses.RespondInternalError(c, operation, err, log)
	case errors.Is(err, cluster.ErrUpstreamUnavailable),
		errors.Is(err, cluster.ErrBuildTimeout):
		log.Warnw("Upstream unavailable", "operation", operation, "error", err)
		apiresponses.RespondServiceUnavailable(c, "cluster control plane temporarily unavailable")
	case errors.Is(err, cluster.ErrClusterNotFound),
		errors.Is(err, cluster.ErrMalformedResponse),
		errors.Is(err, cluster.ErrInvalidTrustMaterial),
		errors.Is(err, cluster.ErrTokenMintFailed),
		errors.Is(err, cluster.ErrAuthExpiredOrRejected):
		log.Errorw("Cluster session failure", "operation", operation, "error", err)
		apiresponses.RespondBadGateway(c, "cluster session could not be established")
	default:
		apiresponses.RespondInternalError(c, operation, err, log)
	}
}
