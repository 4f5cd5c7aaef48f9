package servehttp

import (
	"net/http"

	"prodflow/bizerror"
	"prodflow/domain"
	"prodflow/domain/flow"
	"prodflow/domain/production"
	"prodflow/domain/status"
	"prodflow/misc"
	"prodflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type ProductionStartRequest struct {
	AssignTo                string          `json:"assignTo"`
	EstimatedCompletionDate types.Timestamp `json:"estimatedCompletionDate"`
	Notes                   string          `json:"notes"`
}

type StatusUpdateRequest struct {
	NewStatus string `json:"newStatus" validate:"required"`
	Reason    string `json:"reason"`
	Notes     string `json:"notes"`
}

type AssignmentRequest struct {
	AssignTo string `json:"assignTo" validate:"required"`
	Reason   string `json:"reason"`
}

type QualityCheckRequest struct {
	Passed    bool   `json:"passed"`
	Notes     string `json:"notes"`
	CheckerID string `json:"checkerId" validate:"required"`
}

type HoldRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type CancellationRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type pagedQuery struct {
	Page int `form:"page"`
	Size int `form:"size"`
}

func RegisterProductionHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/productions", middleWares...)

	handler := &productionHandler{
		validator: validator.New(),
	}

	g.POST("", handler.handleCreateProduction)
	g.GET("", handler.handleListProductions)
	g.GET(":id", handler.handleDetailProduction)

	g.GET(":id/timeline", handler.handleTimeline)
	g.GET(":id/transitions", handler.handleQueryTransitions)
	g.GET(":id/next-statuses", handler.handleNextStatuses)

	g.POST(":id/start", handler.handleStartProduction)
	g.PUT(":id/status", handler.handleUpdateStatus)
	g.PUT(":id/assignment", handler.handleAssign)
	g.POST(":id/quality-checks", handler.handleQualityCheck)
	g.POST(":id/hold", handler.handleHold)
	g.POST(":id/resume", handler.handleResume)
	g.POST(":id/cancellation", handler.handleCancel)
}

type productionHandler struct {
	validator *validator.Validate
}

func (h *productionHandler) handleCreateProduction(c *gin.Context) {
	creation := domain.ProductionCreation{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err = h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	detail, err := production.CreateProductionWithWorkflowFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, detail)
}

func (h *productionHandler) handleListProductions(c *gin.Context) {
	query := pagedQuery{Page: 1, Size: 100}
	_ = c.MustBindWith(&query, binding.Query)

	productions, err := production.ListProductions(query.Page, query.Size)
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, productions)
}

func (h *productionHandler) handleDetailProduction(c *gin.Context) {
	id, ok := parseIdOrAbort(c)
	if !ok {
		return
	}

	prod, err := production.DetailProductionFunc(id)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	workflow, err := flow.DetailWorkflowFunc(id)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, &domain.ProductionDetail{Production: *prod, Workflow: *workflow})
}

func (h *productionHandler) handleTimeline(c *gin.Context) {
	id, ok := parseIdOrAbort(c)
	if !ok {
		return
	}

	timeline, err := production.GetProductionTimelineFunc(id)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, timeline)
}

func (h *productionHandler) handleQueryTransitions(c *gin.Context) {
	id, ok := parseIdOrAbort(c)
	if !ok {
		return
	}

	transitions, err := flow.QueryTransitionsFunc(&domain.TransitionQuery{ProductionID: id})
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, transitions)
}

func (h *productionHandler) handleNextStatuses(c *gin.Context) {
	id, ok := parseIdOrAbort(c)
	if !ok {
		return
	}

	statuses, err := flow.GetValidNextStatusesFunc(id)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, statuses)
}

func (h *productionHandler) handleStartProduction(c *gin.Context) {
	id, ok := parseIdOrAbort(c)
	if !ok {
		return
	}
	request := ProductionStartRequest{}
	if err := c.ShouldBindBodyWith(&request, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	s := session.ExtractSessionFromGinContext(c)
	command := flow.NewStartCommand(id, request.AssignTo, request.EstimatedCompletionDate, request.Notes, s.Identity.Name)
	renderCommandResult(c, production.StartProductionFunc(command, s))
}

func (h *productionHandler) handleUpdateStatus(c *gin.Context) {
	id, ok := parseIdOrAbort(c)
	if !ok {
		return
	}
	request := StatusUpdateRequest{}
	if err := c.ShouldBindBodyWith(&request, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(request); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	newStatus, err := status.Parse(request.NewStatus)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	s := session.ExtractSessionFromGinContext(c)
	command := flow.NewStatusCommand(id, newStatus, request.Reason, request.Notes, s.Identity.Name)
	renderCommandResult(c, production.UpdateProductionStatusFunc(command, s))
}

func (h *productionHandler) handleAssign(c *gin.Context) {
	id, ok := parseIdOrAbort(c)
	if !ok {
		return
	}
	request := AssignmentRequest{}
	if err := c.ShouldBindBodyWith(&request, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(request); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	s := session.ExtractSessionFromGinContext(c)
	command := flow.NewAssignCommand(id, request.AssignTo, request.Reason, s.Identity.Name)
	renderCommandResult(c, production.AssignProductionFunc(command, s))
}

func (h *productionHandler) handleQualityCheck(c *gin.Context) {
	id, ok := parseIdOrAbort(c)
	if !ok {
		return
	}
	request := QualityCheckRequest{}
	if err := c.ShouldBindBodyWith(&request, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(request); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	s := session.ExtractSessionFromGinContext(c)
	command := flow.NewQualityCheckCommand(id, request.Passed, request.Notes, request.CheckerID, s.Identity.Name)
	renderCommandResult(c, production.ProcessQualityCheckFunc(command, s))
}

func (h *productionHandler) handleHold(c *gin.Context) {
	id, ok := parseIdOrAbort(c)
	if !ok {
		return
	}
	request := HoldRequest{}
	if err := c.ShouldBindBodyWith(&request, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(request); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	s := session.ExtractSessionFromGinContext(c)
	command := flow.NewHoldCommand(id, request.Reason, s.Identity.Name)
	renderCommandResult(c, flow.PutOnHoldFunc(command, s))
}

func (h *productionHandler) handleResume(c *gin.Context) {
	id, ok := parseIdOrAbort(c)
	if !ok {
		return
	}

	s := session.ExtractSessionFromGinContext(c)
	renderCommandResult(c, flow.ResumeFromHoldFunc(id, s.Identity.Name, s))
}

func (h *productionHandler) handleCancel(c *gin.Context) {
	id, ok := parseIdOrAbort(c)
	if !ok {
		return
	}
	request := CancellationRequest{}
	if err := c.ShouldBindBodyWith(&request, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(request); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	s := session.ExtractSessionFromGinContext(c)
	renderCommandResult(c, production.CancelProductionFunc(id, request.Reason, s.Identity.Name, s))
}

func parseIdOrAbort(c *gin.Context) (types.ID, bool) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return 0, false
	}
	return id, true
}

func renderCommandResult(c *gin.Context, result flow.CommandResult) {
	if result.Success {
		c.JSON(http.StatusOK, result)
		return
	}
	c.JSON(commandErrorStatus(result.ErrorKind), result)
}

// commandErrorStatus mirrors the codes the error handling middleware
// responds for the matching errors.
func commandErrorStatus(kind bizerror.Kind) int {
	switch kind {
	case bizerror.KindNotFound:
		return http.StatusNotFound
	case bizerror.KindMissingReason, bizerror.KindBadRequest, bizerror.KindInvalidTransition:
		return http.StatusBadRequest
	case bizerror.KindAlreadyExists, bizerror.KindInvalidState,
		bizerror.KindInsufficientMaterials, bizerror.KindStaleTransition:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
