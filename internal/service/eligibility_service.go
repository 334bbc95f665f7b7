package service

import (
	"coursewise_backend/internal/model"
	"fmt"
)

// CheckOptions scopes one eligibility question to a target semester.
// Concurrent lists courses the student intends to take in the same term,
// which is enough to satisfy a corequisite edge. Offered, when non-nil,
// restricts to courses actually offered that term.
type CheckOptions struct {
	TargetSemester int
	Concurrent     map[string]bool
	Offered        map[string]bool
	Retake         bool
}

// EligibilityService evaluates every prerequisite edge of a course and
// reports the complete set of unmet requirements. It never stops at the
// first failure: an advising answer that names one blocker when there are
// three sends the student on a wasted round trip.
type EligibilityService struct{}

func NewEligibilityService() *EligibilityService {
	return &EligibilityService{}
}

func (s *EligibilityService) Check(course *model.Course, profile *model.StudentProfile, snap *CurriculumSnapshot, opts CheckOptions) model.EligibilityResult {
	result := model.EligibilityResult{CourseCode: course.Code}

	if profile.Passed(course.Code) && !opts.Retake {
		result.Reasons = append(result.Reasons, model.Reason{
			Kind:       model.ReasonAlreadyCompleted,
			CourseCode: course.Code,
			Detail:     "course already passed",
		})
	}

	for _, edge := range snap.PrerequisitesOf(course.Code) {
		if edge.IsCorequisite {
			if profile.Passed(edge.RequiredCode) || opts.Concurrent[edge.RequiredCode] {
				continue
			}
			result.Reasons = append(result.Reasons, model.Reason{
				Kind:         model.ReasonCorequisiteMissing,
				CourseCode:   course.Code,
				RequiredCode: edge.RequiredCode,
				Detail:       fmt.Sprintf("%s must be passed or taken concurrently", edge.RequiredCode),
			})
			continue
		}

		outcome, taken := profile.Outcomes[edge.RequiredCode]
		if !taken || outcome.Status != model.GradePassed {
			result.Reasons = append(result.Reasons, model.Reason{
				Kind:         model.ReasonPrereqNotPassed,
				CourseCode:   course.Code,
				RequiredCode: edge.RequiredCode,
				MinimumGrade: edge.MinimumGrade,
			})
			continue
		}

		if gradeOrZero(outcome.Grade) < edge.MinimumGrade {
			result.Reasons = append(result.Reasons, model.Reason{
				Kind:         model.ReasonPrereqGradeTooLow,
				CourseCode:   course.Code,
				RequiredCode: edge.RequiredCode,
				MinimumGrade: edge.MinimumGrade,
				ActualGrade:  outcome.Grade,
			})
			continue
		}

		// A prerequisite must come from a strictly earlier semester
		// than the one being planned.
		if opts.TargetSemester > 0 && outcome.SemesterTaken >= opts.TargetSemester {
			result.Reasons = append(result.Reasons, model.Reason{
				Kind:         model.ReasonPrereqSameSemester,
				CourseCode:   course.Code,
				RequiredCode: edge.RequiredCode,
				Detail:       fmt.Sprintf("%s was taken in semester %d, not before semester %d", edge.RequiredCode, outcome.SemesterTaken, opts.TargetSemester),
			})
		}
	}

	if opts.Offered != nil && !opts.Offered[course.Code] {
		result.Reasons = append(result.Reasons, model.Reason{
			Kind:       model.ReasonNotOffered,
			CourseCode: course.Code,
			Detail:     fmt.Sprintf("not offered in semester %d", opts.TargetSemester),
		})
	}

	result.Eligible = len(result.Reasons) == 0
	return result
}

// CheckAll evaluates the whole catalog in code order.
func (s *EligibilityService) CheckAll(profile *model.StudentProfile, snap *CurriculumSnapshot, opts CheckOptions) []model.EligibilityResult {
	courses := snap.SortedCourses()
	results := make([]model.EligibilityResult, 0, len(courses))
	for _, course := range courses {
		results = append(results, s.Check(course, profile, snap, opts))
	}
	return results
}
