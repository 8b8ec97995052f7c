package ops

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kubeflight/eks-gateway/pkg/apiresponses"
	"github.com/kubeflight/eks-gateway/pkg/system"
)

// NamespaceController exposes the Namespace operations under /api/namespaces.
type NamespaceController struct {
	log        *zap.SugaredLogger
	service    *Service
	middleware []gin.HandlerFunc
}

func NewNamespaceController(service *Service, log *zap.SugaredLogger, middleware ...gin.HandlerFunc) *NamespaceController {
	return &NamespaceController{
		log:        log.Named("namespace-controller"),
		service:    service,
		middleware: middleware,
	}
}

func (NamespaceController) BasePath() string {
	return "namespaces/"
}

func (nc *NamespaceController) Register(rg *gin.RouterGroup) error {
	rg.POST("", nc.handleCreateNamespace)
	rg.GET("/:name", nc.handleGetNamespace)
	rg.DELETE("/:name", nc.handleDeleteNamespace)
	return nil
}

func (nc NamespaceController) Handlers() []gin.HandlerFunc {
	return nc.middleware
}

func (nc NamespaceController) handleCreateNamespace(c *gin.Context) {
	log := system.GetReqLogger(c, nc.log)

	request := CreateNamespaceRequest{}
	if err := json.NewDecoder(c.Request.Body).Decode(&request); err != nil {
		log.Warnw("Rejecting unparseable namespace create body", "error", err)
		apiresponses.RespondBadRequest(c, "request body is not a valid namespace creation request")
		return
	}
	if request.Name == "" {
		apiresponses.RespondBadRequest(c, "namespace name is required")
		return
	}

	result, err := nc.service.CreateNamespace(c.Request.Context(), request.Name)
	if err != nil {
		respondOperationError(c, "create namespace", "namespace", request.Name, err, log)
		return
	}
	apiresponses.RespondCreated(c, result)
}

func (nc NamespaceController) handleGetNamespace(c *gin.Context) {
	log := system.GetReqLogger(c, nc.log)
	name := c.Param("name")

	result, err := nc.service.GetNamespace(c.Request.Context(), name)
	if err != nil {
		respondOperationError(c, "get namespace", "namespace", name, err, log)
		return
	}
	apiresponses.RespondOK(c, result)
}

func (nc NamespaceController) handleDeleteNamespace(c *gin.Context) {
	log := system.GetReqLogger(c, nc.log)
	name := c.Param("name")

	if err := nc.service.DeleteNamespace(c.Request.Context(), name); err != nil {
		respondOperationError(c, "delete namespace", "namespace", name, err, log)
		return
	}
	apiresponses.RespondOK(c, gin.H{
		"message": "namespace " + name + " deleted",
		"status":  "success",
	})
}
