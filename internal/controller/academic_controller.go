package controller

import (
	"coursewise_backend/internal/service"
	"coursewise_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AcademicController serves read-only views of the aggregated academic
// state: profile, standing, specialization progress and grade history.
type AcademicController struct {
	Advisor *service.AdvisorService
}

func NewAcademicController(advisor *service.AdvisorService) *AcademicController {
	return &AcademicController{Advisor: advisor}
}

// GetAcademicProfile godoc
// @Summary Aggregated academic profile
// @Description GPA, completed credits and the authoritative per-course outcomes
// @Tags academic
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "success"
// @Router /api/academic/profile [get]
func (c *AcademicController) GetAcademicProfile(ctx *gin.Context) {
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
	snap, err := c.Advisor.Curriculum.SnapshotFor(student.EntryYear)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}
	profile, err := c.Advisor.Profile.ProfileFor(student, snap)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"profile":    profile,
		"graduation": c.Advisor.Profile.GraduationProgress(profile),
	})
}

// GetStanding godoc
// @Summary Credit envelope for the coming term
// @Tags academic
// @Produce json
// @Security ApiKeyAuth
// @Param finalSemester query bool false "apply the final-semester overload allowance"
// @Success 200 {object} util.Response{data=model.Standing} "success"
// @Router /api/academic/standing [get]
func (c *AcademicController) GetStanding(ctx *gin.Context) {
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
	snap, err := c.Advisor.Curriculum.SnapshotFor(student.EntryYear)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}
	profile, err := c.Advisor.Profile.ProfileFor(student, snap)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}

	finalSemester := ctx.Query("finalSemester") == "true"
	util.Success(ctx, c.Advisor.Standing.Evaluate(profile, finalSemester))
}

// GetSpecializations godoc
// @Summary Specialization track progress
// @Tags academic
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "success"
// @Router /api/academic/specializations [get]
func (c *AcademicController) GetSpecializations(ctx *gin.Context) {
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
	snap, err := c.Advisor.Curriculum.SnapshotFor(student.EntryYear)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}
	profile, err := c.Advisor.Profile.ProfileFor(student, snap)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}

	progress := c.Advisor.Specialization.TrackProgress(profile, snap)
	lead := c.Advisor.Specialization.LeadingTrack(progress, 3)

	util.Success(ctx, gin.H{
		"groups":       progress,
		"leadingTrack": lead,
	})
}

// GetGrades godoc
// @Summary Raw grade history
// @Tags academic
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "success"
// @Router /api/grades [get]
func (c *AcademicController) GetGrades(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	records, err := c.Advisor.Profile.GradeRepo.ListByStudent(claims.StudentID)
	if err != nil {
		respondAdvisorError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"records": records})
}
