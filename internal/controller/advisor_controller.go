package controller

import (
	"coursewise_backend/internal/model"
	"coursewise_backend/internal/service"
	"coursewise_backend/internal/util"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdvisorController struct {
	Advisor *service.AdvisorService
	Storage *service.StorageService
}

func NewAdvisorController(advisor *service.AdvisorService, storage *service.StorageService) *AdvisorController {
	return &AdvisorController{Advisor: advisor, Storage: storage}
}

// respondAdvisorError maps engine errors onto the HTTP surface. Guidance
// and stale-sequence rejections are 409s the client can act on; they are
// expected traffic, not failures.
func respondAdvisorError(ctx *gin.Context, err error) {
	var guidance *util.GuidanceError
	var validation *util.ValidationError
	var creditLimit *util.CreditLimitExceededError

	switch {
	case errors.As(err, &guidance):
		util.Conflict(ctx, "event not accepted at this step", gin.H{
			"step":     guidance.CurrentStep,
			"event":    guidance.Event,
			"guidance": guidance.Guidance,
		})
	case errors.Is(err, util.ErrSessionExpired):
		util.Conflict(ctx, err.Error(), gin.H{"expired": true})
	case errors.Is(err, util.ErrConcurrentModification):
		util.Conflict(ctx, err.Error(), gin.H{"retryable": true})
	case errors.As(err, &validation):
		util.BadRequest(ctx, validation.Error())
	case errors.As(err, &creditLimit):
		util.BadRequest(ctx, creditLimit.Error())
	case errors.Is(err, util.ErrRecommendationNotPending):
		util.Conflict(ctx, err.Error(), nil)
	case errors.Is(err, util.ErrCourseNotFound), errors.Is(err, util.ErrCurriculumNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		util.NotFound(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

func sessionView(session *model.AdvisorSession) gin.H {
	return gin.H{
		"step":      session.Step,
		"seq":       session.Seq,
		"expiresAt": session.ExpiresAt,
	}
}

// GetSession godoc
// @Summary Current advisor session
// @Tags advisor
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "success"
// @Router /api/advisor/session [get]
func (c *AdvisorController) GetSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.Advisor.Session(claims.StudentID)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}
	util.Success(ctx, sessionView(session))
}

// Start godoc
// @Summary Start an advising conversation
// @Tags advisor
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "success"
// @Failure 409 {object} util.Response "not accepted at this step"
// @Router /api/advisor/start [post]
func (c *AdvisorController) Start(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.Advisor.Start(claims.StudentID)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}
	util.Success(ctx, sessionView(session))
}

// swagger:model RegistrationRequest
type RegistrationRequest struct {
	StudentNumber   string `json:"studentNumber" binding:"required"`
	Major           string `json:"major"`
	EntryYear       int    `json:"entryYear" binding:"required"`
	CurrentSemester int    `json:"currentSemester" binding:"required"`
}

// SubmitRegistration godoc
// @Summary Confirm registration details
// @Tags advisor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body RegistrationRequest true "registration details"
// @Success 200 {object} util.Response{data=object} "success"
// @Failure 400 {object} util.Response "invalid details"
// @Failure 409 {object} util.Response "not accepted at this step"
// @Router /api/advisor/registration [post]
func (c *AdvisorController) SubmitRegistration(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req RegistrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.Advisor.SubmitRegistration(claims.StudentID, &model.RegistrationDraft{
		StudentNumber:   req.StudentNumber,
		Major:           req.Major,
		EntryYear:       req.EntryYear,
		CurrentSemester: req.CurrentSemester,
	})
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}
	util.Success(ctx, sessionView(session))
}

// swagger:model GradeEntryRequest
type GradeEntryRequest struct {
	Label     string   `json:"label" binding:"required"`
	Grade     *float64 `json:"grade"`
	Withdrawn bool     `json:"withdrawn"`
	Semester  int      `json:"semester" binding:"required,min=1"`
}

// SubmitGrades godoc
// @Summary Submit transcript entries for reconciliation
// @Description Entries are matched against the catalog; the session only advances when every entry resolves cleanly
// @Tags advisor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body []GradeEntryRequest true "grade entries"
// @Success 200 {object} util.Response{data=object} "per-entry outcomes"
// @Failure 409 {object} util.Response "not accepted at this step"
// @Router /api/advisor/grades [post]
func (c *AdvisorController) SubmitGrades(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req []GradeEntryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if len(req) == 0 {
		util.BadRequest(ctx, "no grade entries submitted")
		return
	}

	entries := make([]model.ParsedGradeEntry, 0, len(req))
	for _, r := range req {
		entries = append(entries, model.ParsedGradeEntry{
			Label:     r.Label,
			Grade:     r.Grade,
			Withdrawn: r.Withdrawn,
			Semester:  r.Semester,
		})
	}

	outcomes, session, err := c.Advisor.SubmitGrades(claims.StudentID, entries)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"outcomes": outcomes,
		"session":  sessionView(session),
	})
}

// ConfirmGrades godoc
// @Summary Confirm the staged grades
// @Description Commits the staged grade records and the session transition atomically
// @Tags advisor
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "success"
// @Failure 409 {object} util.Response "not accepted at this step"
// @Router /api/advisor/grades/confirm [post]
func (c *AdvisorController) ConfirmGrades(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.Advisor.ConfirmGrades(claims.StudentID)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}
	util.Success(ctx, sessionView(session))
}

// RejectGrades godoc
// @Summary Discard the staged grades and re-enter them
// @Tags advisor
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "success"
// @Router /api/advisor/grades/reject [post]
func (c *AdvisorController) RejectGrades(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.Advisor.RejectGrades(claims.StudentID)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}
	util.Success(ctx, sessionView(session))
}

// swagger:model PreferencesRequest
type PreferencesRequest struct {
	DesiredCredits int      `json:"desiredCredits"`
	Interests      []string `json:"interests"`
	AvoidCourses   []string `json:"avoidCourses"`
	FinalSemester  bool     `json:"finalSemester"`
}

// SubmitPreferences godoc
// @Summary Submit preferences and receive a recommendation
// @Description Runs the full pipeline; falls back to the deterministic recommender when generation is unavailable
// @Tags advisor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body PreferencesRequest true "preferences"
// @Success 200 {object} util.Response{data=object} "recommendation plan"
// @Failure 409 {object} util.Response "not accepted at this step"
// @Router /api/advisor/preferences [post]
func (c *AdvisorController) SubmitPreferences(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req PreferencesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	plan, session, err := c.Advisor.SubmitPreferences(ctx.Request.Context(), claims.StudentID, &model.Preferences{
		DesiredCredits: req.DesiredCredits,
		Interests:      req.Interests,
		AvoidCourses:   req.AvoidCourses,
		FinalSemester:  req.FinalSemester,
	})
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"plan":     plan,
		"fallback": plan.Source == "fallback",
		"session":  sessionView(session),
	})
}

// GetRecommendation godoc
// @Summary Most recent recommendation plan
// @Description Served from the short-lived cache when available
// @Tags advisor
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "plan, or null when none is cached"
// @Router /api/advisor/recommendation [get]
func (c *AdvisorController) GetRecommendation(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	plan, err := c.Advisor.CachedRecommendation(ctx.Request.Context(), claims.StudentID)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"plan": plan})
}

// ConfirmRecommendation godoc
// @Summary Accept the pending recommendation
// @Tags advisor
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "accepted plan"
// @Failure 409 {object} util.Response "no recommendation pending"
// @Router /api/advisor/recommendation/confirm [post]
func (c *AdvisorController) ConfirmRecommendation(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	plan, session, err := c.Advisor.ConfirmRecommendation(claims.StudentID)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"plan":    plan,
		"session": sessionView(session),
	})
}

// Reset godoc
// @Summary Reset the conversation to idle
// @Tags advisor
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "success"
// @Router /api/advisor/reset [post]
func (c *AdvisorController) Reset(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.Advisor.Reset(claims.StudentID)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}
	util.Success(ctx, sessionView(session))
}

// UploadTranscript godoc
// @Summary Upload a transcript photo
// @Description Stores the photo so disputed reconciliations can be reviewed later
// @Tags advisor
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param file formData file true "transcript image"
// @Success 200 {object} util.Response{data=object} "stored"
// @Failure 400 {object} util.Response "not an image"
// @Router /api/advisor/transcript [post]
func (c *AdvisorController) UploadTranscript(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "missing file")
		return
	}
	defer file.Close()

	contentType, err := util.ValidateMimeType(file, []string{util.MimeImage})
	if err != nil {
		util.BadRequest(ctx, "transcript upload must be an image")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	filename := fmt.Sprintf("transcripts/%d/%s%s", claims.StudentID, model.GenerateUUID(), filepath.Ext(header.Filename))
	url, err := c.Storage.Upload(ctx.Request.Context(), filename, file, header.Size, contentType)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"url": url})
}

// swagger:model AskRequest
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// Ask godoc
// @Summary Free-form advising question
// @Tags advisor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body AskRequest true "question"
// @Success 200 {object} util.Response{data=object} "answer"
// @Failure 503 {object} util.Response "generation unavailable"
// @Router /api/qa/ask [post]
func (c *AdvisorController) Ask(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req AskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answer, err := c.Advisor.Ask(ctx.Request.Context(), claims.StudentID, req.Question)
	if err != nil {
		var capErr *util.CapabilityError
		if errors.As(err, &capErr) {
			util.Error(ctx, http.StatusServiceUnavailable, "advising assistant is unavailable, try again later")
			return
		}
		respondAdvisorError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"answer": answer})
}
