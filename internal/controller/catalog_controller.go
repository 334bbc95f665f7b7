package controller

import (
	"coursewise_backend/internal/service"
	"coursewise_backend/internal/util"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CatalogController serves the course catalog and per-course eligibility,
// plus the admin-only curriculum reload.
type CatalogController struct {
	Advisor    *service.AdvisorService
	Curriculum *service.CurriculumService
}

func NewCatalogController(advisor *service.AdvisorService, curriculum *service.CurriculumService) *CatalogController {
	return &CatalogController{Advisor: advisor, Curriculum: curriculum}
}

// ListCourses godoc
// @Summary Course catalog for the student's curriculum version
// @Tags catalog
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "success"
// @Router /api/courses [get]
func (c *CatalogController) ListCourses(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	student, err := c.Advisor.StudentRepo.FindByID(claims.StudentID)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}
	snap, err := c.Curriculum.SnapshotFor(student.EntryYear)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"entryYear": snap.EntryYear,
		"courses":   snap.SortedCourses(),
	})
}

// CheckEligibility godoc
// @Summary Eligibility for one course
// @Description Reports every unmet requirement, not just the first
// @Tags catalog
// @Produce json
// @Security ApiKeyAuth
// @Param code path string true "course code"
// @Param concurrent query string false "comma-separated codes taken in the same term"
// @Success 200 {object} util.Response{data=model.EligibilityResult} "success"
// @Failure 404 {object} util.Response "unknown course"
// @Router /api/courses/{code}/eligibility [get]
func (c *CatalogController) CheckEligibility(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	student, err := c.Advisor.StudentRepo.FindByID(claims.StudentID)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}
	snap, err := c.Curriculum.SnapshotFor(student.EntryYear)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}

	course, ok := snap.Course(ctx.Param("code"))
	if !ok {
		respondAdvisorError(ctx, util.ErrCourseNotFound)
		return
	}

	profile, err := c.Advisor.Profile.ProfileFor(student, snap)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}

	concurrent := map[string]bool{}
	if raw := ctx.Query("concurrent"); raw != "" {
		for _, code := range strings.Split(raw, ",") {
			concurrent[strings.TrimSpace(code)] = true
		}
	}

	result := c.Advisor.Eligibility.Check(course, profile, snap, service.CheckOptions{
		TargetSemester: student.CurrentSemester,
		Concurrent:     concurrent,
		Offered:        snap.OfferedIn(student.CurrentSemester),
	})
	util.Success(ctx, result)
}

// ReloadCurriculum godoc
// @Summary Reload curriculum versions from storage
// @Description Re-validates every version; a cyclic graph rejects the reload and the previous set keeps serving
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response "reloaded"
// @Failure 503 {object} util.Response "validation failed, previous curriculum retained"
// @Router /api/admin/curriculum/reload [post]
func (c *CatalogController) ReloadCurriculum(ctx *gin.Context) {
	if err := c.Curriculum.Load(); err != nil {
		var cycle *util.CycleDetectedError
		if errors.As(err, &cycle) {
			util.Error(ctx, http.StatusServiceUnavailable, cycle.Error())
			return
		}
		var validation *util.ValidationError
		if errors.As(err, &validation) {
			util.Error(ctx, http.StatusServiceUnavailable, validation.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"reloaded": true})
}
