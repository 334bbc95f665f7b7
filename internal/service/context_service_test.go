package service

import (
	"strings"
	"testing"

	"coursewise_backend/internal/config"
	"coursewise_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextFixture(t *testing.T) (*model.Student, *CurriculumSnapshot) {
	t.Helper()
	courses := []model.Course{
		mkCourse("CS101", 4, model.CourseFoundation, true),
		mkCourse("CS102", 4, model.CourseFoundation, true),
		mkCourse("AI401", 3, model.CourseSpecialized, false),
		mkCourse("AI402", 3, model.CourseSpecialized, false),
	}
	courses[1].Description = strings.Repeat("long prose ", 60)
	courses[0].RecommendedSemester = iptr(1)
	courses[1].RecommendedSemester = iptr(2)

	groups := []model.ElectiveGroup{
		{
			BaseModel:       model.BaseModel{ID: 1},
			Name:            "Artificial Intelligence",
			EntryYear:       1403,
			RequiredCredits: 12,
			Priority:        5,
			Courses: []model.GroupCourse{
				{GroupID: 1, CourseCode: "AI401", Priority: 2, Level: model.StronglyRecommended},
				{GroupID: 1, CourseCode: "AI402", Priority: 1, Level: model.Optional},
			},
		},
	}

	student := &model.Student{StudentNumber: "40012345", EntryYear: 1403, CurrentSemester: 3}
	snap := buildSnap(t, courses, nil, groups)
	snap.Regulations = "Credit load\nStudents take 14 to 24 credits per semester."
	return student, snap
}

func assembleInput(student *model.Student, snap *CurriculumSnapshot) AssembleInput {
	profile := &model.StudentProfile{
		Outcomes: map[string]model.CourseOutcome{
			"CS101":  passedOutcome("CS101", 15, 1, 4),
			"GEN101": passedOutcome("GEN101", 12, 2, 2),
		},
	}
	return AssembleInput{
		Student: student,
		Profile: profile,
		Eligibility: []model.EligibilityResult{
			{CourseCode: "CS101", Eligible: false, Reasons: []model.Reason{{Kind: model.ReasonAlreadyCompleted, CourseCode: "CS101"}}},
			{CourseCode: "CS102", Eligible: true},
			{CourseCode: "AI401", Eligible: true},
			{CourseCode: "AI402", Eligible: false, Reasons: []model.Reason{{Kind: model.ReasonPrereqNotPassed, CourseCode: "AI402", RequiredCode: "AI401"}}},
		},
		Standing:   model.Standing{GPA: 15, Label: model.StandingGood, MaxCredits: 20, MinCredits: 14},
		Graduation: model.GraduationProgress{RequiredCredits: 140, EarnedCredits: 6},
		Specialization: []model.GroupProgress{
			{GroupID: 1, Name: "Artificial Intelligence", EarnedCredits: 0, RequiredCredits: 12, Remaining: 12},
		},
		Snapshot: snap,
	}
}

func TestAssemble_Shape(t *testing.T) {
	student, snap := contextFixture(t)
	svc := NewContextService(&config.AdvisorConfig{MaxContextBytes: 1 << 20})

	rc := svc.Assemble(assembleInput(student, snap))

	codes := make([]string, 0, len(rc.EligibleCourses))
	for _, c := range rc.EligibleCourses {
		codes = append(codes, c.Code)
	}
	assert.Equal(t, []string{"CS102", "AI401"}, codes)

	// A course blocked only because it is already passed is not listed as
	// ineligible; a genuinely blocked course is, with its reasons.
	require.Len(t, rc.IneligibleCourses, 1)
	assert.Equal(t, "AI402", rc.IneligibleCourses[0].Code)
	require.Len(t, rc.IneligibleCourses[0].Reasons, 1)

	require.Len(t, rc.GradeHistory, 2)
	assert.Equal(t, "GEN101", rc.GradeHistory[0].CourseCode, "history is newest first")

	require.Len(t, rc.Specialization, 1)
	members := rc.Specialization[0].Members
	require.Len(t, members, 2)
	assert.Equal(t, "AI401", members[0].CourseCode, "members ordered by priority")

	assert.Contains(t, rc.Regulations, "Credit load")
	assert.Equal(t, model.StrategyBalanced, rc.Strategy)
}

func TestAssemble_Strategy(t *testing.T) {
	student, snap := contextFixture(t)
	svc := NewContextService(&config.AdvisorConfig{MaxContextBytes: 1 << 20})

	t.Run("probation forces recovery", func(t *testing.T) {
		in := assembleInput(student, snap)
		in.Standing.Probation = true
		assert.Equal(t, model.StrategyRecovery, svc.Assemble(in).Strategy)
	})

	t.Run("a failed course forces recovery", func(t *testing.T) {
		in := assembleInput(student, snap)
		in.Profile.Outcomes["CS102"] = model.CourseOutcome{
			CourseCode: "CS102", Status: model.GradeFailed, SemesterTaken: 2, Credits: 4,
		}
		assert.Equal(t, model.StrategyRecovery, svc.Assemble(in).Strategy)
	})

	t.Run("final level means graduation", func(t *testing.T) {
		in := assembleInput(student, snap)
		in.Graduation.Level = "final"
		assert.Equal(t, model.StrategyGraduation, svc.Assemble(in).Strategy)
	})

	t.Run("a started track means specialization", func(t *testing.T) {
		in := assembleInput(student, snap)
		in.Specialization[0].EarnedCredits = 3
		assert.Equal(t, model.StrategySpecialization, svc.Assemble(in).Strategy)
	})

	t.Run("a satisfied track is not a focus", func(t *testing.T) {
		in := assembleInput(student, snap)
		in.Specialization[0].EarnedCredits = 12
		in.Specialization[0].Satisfied = true
		assert.Equal(t, model.StrategyBalanced, svc.Assemble(in).Strategy)
	})
}

func TestAssemble_TruncationOrder(t *testing.T) {
	student, snap := contextFixture(t)
	measure := NewContextService(&config.AdvisorConfig{MaxContextBytes: 1 << 20})

	full := measure.Assemble(assembleInput(student, snap))
	sizeFull := measure.Size(full)

	// Stage 1: just under the full size forces the descriptions out, and
	// that alone is enough; everything else survives.
	svc := NewContextService(&config.AdvisorConfig{MaxContextBytes: sizeFull - 1})
	rc := svc.Assemble(assembleInput(student, snap))

	for _, c := range rc.EligibleCourses {
		assert.Empty(t, c.Description)
	}
	assert.Empty(t, rc.Regulations, "regulation prose goes with the descriptions")
	assert.Len(t, rc.GradeHistory, 2)
	sizeNoDesc := measure.Size(rc)
	require.Less(t, sizeNoDesc, sizeFull-1)

	// Stage 2: just under the description-less size drops the oldest
	// history entry and stops there.
	svc = NewContextService(&config.AdvisorConfig{MaxContextBytes: sizeNoDesc - 1})
	rc = svc.Assemble(assembleInput(student, snap))

	require.Len(t, rc.GradeHistory, 1)
	assert.Equal(t, "GEN101", rc.GradeHistory[0].CourseCode, "the newest entry is the one retained")
	assert.Len(t, rc.Specialization[0].Members, 2)

	// Stage 3: below what any history trimming can reach, optional-level
	// elective members go; higher levels stay.
	rc.GradeHistory = nil
	sizeNoHistory := measure.Size(rc)

	svc = NewContextService(&config.AdvisorConfig{MaxContextBytes: sizeNoHistory - 1})
	rc = svc.Assemble(assembleInput(student, snap))

	assert.Empty(t, rc.GradeHistory)
	require.Len(t, rc.Specialization, 1)
	require.Len(t, rc.Specialization[0].Members, 1)
	assert.Equal(t, model.StronglyRecommended, rc.Specialization[0].Members[0].Level)

	// Protected content survives any bound.
	svc = NewContextService(&config.AdvisorConfig{MaxContextBytes: 10})
	rc = svc.Assemble(assembleInput(student, snap))

	assert.Equal(t, 20, rc.Standing.MaxCredits)
	require.Len(t, rc.IneligibleCourses, 1)
	assert.NotEmpty(t, rc.IneligibleCourses[0].Reasons)
}

func TestFallbackRecommend(t *testing.T) {
	base := func() *model.RecommendationContext {
		return &model.RecommendationContext{
			Standing: model.Standing{MaxCredits: 12},
			EligibleCourses: []model.ContextCourse{
				{Code: "CS102", Credits: 4, IsMandatory: true, RecommendedSemester: iptr(2)},
				{Code: "CS201", Credits: 3, IsMandatory: true, RecommendedSemester: iptr(3)},
				{Code: "GEN200", Credits: 8, IsMandatory: true}, // nil semester sorts last
				{Code: "AI401", Credits: 3, Type: model.CourseSpecialized},
			},
			Specialization: []model.ContextGroup{
				{
					Name:     "Artificial Intelligence",
					Priority: 5,
					Members:  []model.ContextGroupEntry{{CourseCode: "AI401", Priority: 2}},
				},
			},
		}
	}
	svc := NewContextService(&config.AdvisorConfig{MaxContextBytes: 1 << 20})

	t.Run("mandatory first then electives, overflow skipped", func(t *testing.T) {
		plan := svc.FallbackRecommend(base())

		codes := make([]string, 0, len(plan.Courses))
		for _, c := range plan.Courses {
			codes = append(codes, c.Code)
		}
		// GEN200 would overflow the 12-credit cap after CS102+CS201; it
		// is skipped and the elective still fits.
		assert.Equal(t, []string{"CS102", "CS201", "AI401"}, codes)
		assert.Equal(t, 10, plan.TotalCredits)
		assert.Equal(t, "fallback", plan.Source)
	})

	t.Run("deterministic", func(t *testing.T) {
		first := svc.FallbackRecommend(base())
		second := svc.FallbackRecommend(base())
		assert.Equal(t, first, second)
	})

	t.Run("probation blocks specialized electives", func(t *testing.T) {
		rc := base()
		rc.Standing.Probation = true
		plan := svc.FallbackRecommend(rc)

		for _, c := range plan.Courses {
			assert.NotEqual(t, "AI401", c.Code)
		}
	})

	t.Run("desired credits lower the cap", func(t *testing.T) {
		rc := base()
		rc.Preferences = &model.Preferences{DesiredCredits: 7}
		plan := svc.FallbackRecommend(rc)

		assert.LessOrEqual(t, plan.TotalCredits, 7)
	})

	t.Run("avoided courses are honored", func(t *testing.T) {
		rc := base()
		rc.Preferences = &model.Preferences{AvoidCourses: []string{"CS102", "AI401"}}
		plan := svc.FallbackRecommend(rc)

		for _, c := range plan.Courses {
			assert.NotContains(t, []string{"CS102", "AI401"}, c.Code)
		}
	})

	t.Run("satisfied groups contribute nothing", func(t *testing.T) {
		rc := base()
		rc.Specialization[0].Satisfied = true
		plan := svc.FallbackRecommend(rc)

		for _, c := range plan.Courses {
			assert.NotEqual(t, "AI401", c.Code)
		}
	})

	t.Run("failed course outranks everything", func(t *testing.T) {
		rc := base()
		rc.EligibleCourses[1].FailedBefore = true // CS201

		plan := svc.FallbackRecommend(rc)
		require.NotEmpty(t, plan.Courses)
		assert.Equal(t, "CS201", plan.Courses[0].Code)
		assert.Equal(t, "retake of a previously failed course", plan.Courses[0].Reason)
	})

	t.Run("unlocking courses come before leaves", func(t *testing.T) {
		rc := base()
		rc.EligibleCourses[1].PrereqFor = 2 // CS201 sits earlier despite the later semester

		plan := svc.FallbackRecommend(rc)
		require.NotEmpty(t, plan.Courses)
		assert.Equal(t, "CS201", plan.Courses[0].Code)
		assert.Equal(t, "mandatory and a prerequisite for later courses", plan.Courses[0].Reason)
	})

	t.Run("overdue courses gain weight", func(t *testing.T) {
		rc := base()
		rc.CurrentSemester = 5
		rc.EligibleCourses[1].RecommendedSemester = iptr(1) // CS201 four semesters behind

		plan := svc.FallbackRecommend(rc)
		require.NotEmpty(t, plan.Courses)
		assert.Equal(t, "CS201", plan.Courses[0].Code)
	})
}
