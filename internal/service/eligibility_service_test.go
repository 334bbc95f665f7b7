package service

import (
	"testing"

	"coursewise_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eligibilityFixture(t *testing.T) *CurriculumSnapshot {
	t.Helper()
	courses := []model.Course{
		mkCourse("CS101", 4, model.CourseFoundation, true),
		mkCourse("MATH101", 3, model.CourseGeneral, true),
		mkCourse("CS301", 3, model.CourseCore, true),
		mkCourse("CS301L", 1, model.CourseCore, false),
	}
	strict := edge("CS301", "MATH101")
	strict.MinimumGrade = 12

	return buildSnap(t, courses, []model.CoursePrerequisite{
		edge("CS301", "CS101"),
		strict,
		coreqEdge("CS301", "CS301L"),
	}, nil)
}

func profileWith(outcomes map[string]model.CourseOutcome) *model.StudentProfile {
	return &model.StudentProfile{Outcomes: outcomes}
}

func TestCheck_EnumeratesEveryReason(t *testing.T) {
	snap := eligibilityFixture(t)
	svc := NewEligibilityService()

	// Nothing passed: all three edges fail at once.
	result := svc.Check(snap.Courses["CS301"], profileWith(nil), snap, CheckOptions{TargetSemester: 5})

	assert.False(t, result.Eligible)
	require.Len(t, result.Reasons, 3)

	kinds := map[model.ReasonKind]int{}
	for _, r := range result.Reasons {
		kinds[r.Kind]++
	}
	assert.Equal(t, 2, kinds[model.ReasonPrereqNotPassed])
	assert.Equal(t, 1, kinds[model.ReasonCorequisiteMissing])
}

func TestCheck_PrereqGradeTooLow(t *testing.T) {
	snap := eligibilityFixture(t)
	svc := NewEligibilityService()

	profile := profileWith(map[string]model.CourseOutcome{
		"CS101":   passedOutcome("CS101", 14, 1, 4),
		"MATH101": passedOutcome("MATH101", 11, 1, 3), // edge requires 12
		"CS301L":  passedOutcome("CS301L", 15, 2, 1),
	})

	result := svc.Check(snap.Courses["CS301"], profile, snap, CheckOptions{TargetSemester: 5})
	assert.False(t, result.Eligible)
	require.Len(t, result.Reasons, 1)

	reason := result.Reasons[0]
	assert.Equal(t, model.ReasonPrereqGradeTooLow, reason.Kind)
	assert.Equal(t, "MATH101", reason.RequiredCode)
	assert.Equal(t, 12.0, reason.MinimumGrade)
	require.NotNil(t, reason.ActualGrade)
	assert.Equal(t, 11.0, *reason.ActualGrade)
}

func TestCheck_PrereqMustBeStrictlyEarlier(t *testing.T) {
	snap := eligibilityFixture(t)
	svc := NewEligibilityService()

	profile := profileWith(map[string]model.CourseOutcome{
		"CS101":   passedOutcome("CS101", 14, 5, 4), // same semester as the target
		"MATH101": passedOutcome("MATH101", 15, 1, 3),
		"CS301L":  passedOutcome("CS301L", 15, 2, 1),
	})

	result := svc.Check(snap.Courses["CS301"], profile, snap, CheckOptions{TargetSemester: 5})
	assert.False(t, result.Eligible)
	require.Len(t, result.Reasons, 1)
	assert.Equal(t, model.ReasonPrereqSameSemester, result.Reasons[0].Kind)
}

func TestCheck_CorequisiteSatisfiedByConcurrentEnrollment(t *testing.T) {
	snap := eligibilityFixture(t)
	svc := NewEligibilityService()

	profile := profileWith(map[string]model.CourseOutcome{
		"CS101":   passedOutcome("CS101", 14, 1, 4),
		"MATH101": passedOutcome("MATH101", 15, 1, 3),
	})

	blocked := svc.Check(snap.Courses["CS301"], profile, snap, CheckOptions{TargetSemester: 5})
	require.Len(t, blocked.Reasons, 1)
	assert.Equal(t, model.ReasonCorequisiteMissing, blocked.Reasons[0].Kind)

	ok := svc.Check(snap.Courses["CS301"], profile, snap, CheckOptions{
		TargetSemester: 5,
		Concurrent:     map[string]bool{"CS301L": true},
	})
	assert.True(t, ok.Eligible)
}

func TestCheck_AlreadyCompletedAndRetake(t *testing.T) {
	snap := eligibilityFixture(t)
	svc := NewEligibilityService()

	profile := profileWith(map[string]model.CourseOutcome{
		"CS101": passedOutcome("CS101", 14, 1, 4),
	})

	result := svc.Check(snap.Courses["CS101"], profile, snap, CheckOptions{TargetSemester: 3})
	assert.False(t, result.Eligible)
	require.Len(t, result.Reasons, 1)
	assert.Equal(t, model.ReasonAlreadyCompleted, result.Reasons[0].Kind)

	retake := svc.Check(snap.Courses["CS101"], profile, snap, CheckOptions{TargetSemester: 3, Retake: true})
	assert.True(t, retake.Eligible)
}

func TestCheck_OfferedFilter(t *testing.T) {
	snap := eligibilityFixture(t)
	svc := NewEligibilityService()

	result := svc.Check(snap.Courses["CS101"], profileWith(nil), snap, CheckOptions{
		TargetSemester: 1,
		Offered:        map[string]bool{"MATH101": true},
	})
	assert.False(t, result.Eligible)
	require.Len(t, result.Reasons, 1)
	assert.Equal(t, model.ReasonNotOffered, result.Reasons[0].Kind)

	// A nil Offered set means no offering restriction at all.
	open := svc.Check(snap.Courses["CS101"], profileWith(nil), snap, CheckOptions{TargetSemester: 1})
	assert.True(t, open.Eligible)
}

func TestCheckAll_DeterministicOrder(t *testing.T) {
	snap := eligibilityFixture(t)
	svc := NewEligibilityService()

	results := svc.CheckAll(profileWith(nil), snap, CheckOptions{TargetSemester: 1})
	require.Len(t, results, 4)
	assert.Equal(t, "CS101", results[0].CourseCode)
	assert.Equal(t, "CS301", results[1].CourseCode)
	assert.Equal(t, "CS301L", results[2].CourseCode)
	assert.Equal(t, "MATH101", results[3].CourseCode)
}
