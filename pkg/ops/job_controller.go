package ops

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kubeflight/eks-gateway/pkg/apiresponses"
	"github.com/kubeflight/eks-gateway/pkg/system"
)

// JobController exposes the Job operations under /api/jobs.
type JobController struct {
	log        *zap.SugaredLogger
	service    *Service
	middleware []gin.HandlerFunc
}

func NewJobController(service *Service, log *zap.SugaredLogger, middleware ...gin.HandlerFunc) *JobController {
	return &JobController{
		log:        log.Named("job-controller"),
		service:    service,
		middleware: middleware,
	}
}

func (JobController) BasePath() string {
	return "jobs/"
}

func (jc *JobController) Register(rg *gin.RouterGroup) error {
	rg.POST("", jc.handleCreateJob)
	rg.DELETE("/:name", jc.handleDeleteJob)
	rg.GET("/:name/status", jc.handleGetJobStatus)
	return nil
}

func (jc JobController) Handlers() []gin.HandlerFunc {
	return jc.middleware
}

func (jc JobController) handleCreateJob(c *gin.Context) {
	log := system.GetReqLogger(c, jc.log)

	request := CreateJobRequest{}
	if err := json.NewDecoder(c.Request.Body).Decode(&request); err != nil {
		log.Warnw("Rejecting unparseable job create body", "error", err)
		apiresponses.RespondBadRequest(c, "request body is not a valid job creation request")
		return
	}

	result, err := jc.service.CreateJob(c.Request.Context(), request)
	if err != nil {
		respondOperationError(c, "create job", "job", request.Name, err, log)
		return
	}
	apiresponses.RespondCreated(c, result)
}

func (jc JobController) handleDeleteJob(c *gin.Context) {
	log := system.GetReqLogger(c, jc.log)
	name := c.Param("name")
	namespace := c.Query("namespace")

	if err := jc.service.DeleteJob(c.Request.Context(), name, namespace); err != nil {
		respondOperationError(c, "delete job", "job", name, err, log)
		return
	}
	apiresponses.RespondOK(c, gin.H{
		"message": "job " + name + " deleted",
		"status":  "success",
	})
}

func (jc JobController) handleGetJobStatus(c *gin.Context) {
	log := system.GetReqLogger(c, jc.log)
	name := c.Param("name")
	namespace := c.Query("namespace")

	status, err := jc.service.GetJobStatus(c.Request.Context(), name, namespace)
	if err != nil {
		respondOperationError(c, "get job status", "job", name, err, log)
		return
	}
	apiresponses.RespondOK(c, status)
}
