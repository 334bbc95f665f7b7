package service

import (
	"coursewise_backend/internal/config"
	"coursewise_backend/internal/model"
	"encoding/json"
	"sort"
)

// ContextService turns the engine outputs into the bounded context handed
// to the generation capability, and owns the deterministic fallback used
// when generation is unavailable or answers nonsense.
type ContextService struct {
	maxBytes int
}

func NewContextService(cfg *config.AdvisorConfig) *ContextService {
	return &ContextService{maxBytes: cfg.MaxContextBytes}
}

// AssembleInput bundles everything Assemble needs; the assembler itself
// is pure.
type AssembleInput struct {
	Student        *model.Student
	Profile        *model.StudentProfile
	Eligibility    []model.EligibilityResult
	Standing       model.Standing
	Graduation     model.GraduationProgress
	Specialization []model.GroupProgress
	Preferences    *model.Preferences
	Snapshot       *CurriculumSnapshot
}

// Assemble builds a deterministic context and shrinks it under the size
// bound. Truncation drops content in a fixed order: course descriptions
// first, then the oldest grade history, then optional-level elective
// detail. The standing cap and every ineligibility reason always survive;
// a recommendation computed without them could not be trusted.
func (s *ContextService) Assemble(in AssembleInput) *model.RecommendationContext {
	rc := &model.RecommendationContext{
		StudentNumber:   in.Student.StudentNumber,
		EntryYear:       in.Student.EntryYear,
		CurrentSemester: in.Student.CurrentSemester,
		Standing:        in.Standing,
		Graduation:      in.Graduation,
		Preferences:     in.Preferences,
		Regulations:     in.Snapshot.Regulations,
	}

	dependents := in.Snapshot.Dependents()
	for _, res := range in.Eligibility {
		course, ok := in.Snapshot.Course(res.CourseCode)
		if !ok {
			continue
		}
		if res.Eligible {
			outcome, attempted := in.Profile.Outcomes[course.Code]
			rc.EligibleCourses = append(rc.EligibleCourses, model.ContextCourse{
				Code:                course.Code,
				Name:                course.Name,
				Credits:             course.TotalCredits(),
				Type:                course.Type,
				RecommendedSemester: course.RecommendedSemester,
				IsMandatory:         course.IsMandatory,
				PrereqFor:           dependents[course.Code],
				FailedBefore:        attempted && outcome.Status == model.GradeFailed,
				Description:         course.Description,
			})
		} else if !alreadyCompletedOnly(res.Reasons) {
			rc.IneligibleCourses = append(rc.IneligibleCourses, model.ContextIneligible{
				Code:    res.CourseCode,
				Reasons: res.Reasons,
			})
		}
	}

	rc.GradeHistory = historyFromProfile(in.Profile)
	rc.Specialization = groupsFromSnapshot(in.Snapshot, in.Specialization)
	rc.Strategy = chooseStrategy(rc, in)

	s.truncate(rc)
	return rc
}

// chooseStrategy condenses the student's situation into one advising
// focus. Recovery beats everything: a probation student or one dragging
// failed courses plans around repairing the GPA before anything else.
func chooseStrategy(rc *model.RecommendationContext, in AssembleInput) string {
	if in.Standing.Probation {
		return model.StrategyRecovery
	}
	for _, o := range in.Profile.Outcomes {
		if o.Status == model.GradeFailed {
			return model.StrategyRecovery
		}
	}
	if in.Graduation.Level == "final" {
		return model.StrategyGraduation
	}
	for _, g := range in.Specialization {
		if g.EarnedCredits > 0 && !g.Satisfied {
			return model.StrategySpecialization
		}
	}
	return model.StrategyBalanced
}

// alreadyCompletedOnly filters courses whose only blocker is that the
// student already passed them; listing those as "ineligible" would only
// confuse the prompt.
func alreadyCompletedOnly(reasons []model.Reason) bool {
	for _, r := range reasons {
		if r.Kind != model.ReasonAlreadyCompleted {
			return false
		}
	}
	return len(reasons) > 0
}

func historyFromProfile(profile *model.StudentProfile) []model.ContextGrade {
	history := make([]model.ContextGrade, 0, len(profile.Outcomes))
	for _, o := range profile.Outcomes {
		history = append(history, model.ContextGrade{
			CourseCode: o.CourseCode,
			Grade:      o.Grade,
			Status:     o.Status,
			Semester:   o.SemesterTaken,
		})
	}
	// Newest first so truncation trims from the tail.
	sort.Slice(history, func(i, j int) bool {
		if history[i].Semester != history[j].Semester {
			return history[i].Semester > history[j].Semester
		}
		return history[i].CourseCode < history[j].CourseCode
	})
	return history
}

func groupsFromSnapshot(snap *CurriculumSnapshot, progress []model.GroupProgress) []model.ContextGroup {
	byID := map[uint]*model.ElectiveGroup{}
	for i := range snap.Groups {
		byID[snap.Groups[i].ID] = &snap.Groups[i]
	}

	groups := make([]model.ContextGroup, 0, len(progress))
	for _, p := range progress {
		cg := model.ContextGroup{
			Name:            p.Name,
			EarnedCredits:   p.EarnedCredits,
			RequiredCredits: p.RequiredCredits,
			Satisfied:       p.Satisfied,
		}
		if group, ok := byID[p.GroupID]; ok {
			cg.Priority = group.Priority
			for _, member := range group.Courses {
				cg.Members = append(cg.Members, model.ContextGroupEntry{
					CourseCode: member.CourseCode,
					Priority:   member.Priority,
					Level:      member.Level,
				})
			}
			sort.Slice(cg.Members, func(i, j int) bool {
				if cg.Members[i].Priority != cg.Members[j].Priority {
					return cg.Members[i].Priority > cg.Members[j].Priority
				}
				return cg.Members[i].CourseCode < cg.Members[j].CourseCode
			})
		}
		groups = append(groups, cg)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Priority != groups[j].Priority {
			return groups[i].Priority > groups[j].Priority
		}
		return groups[i].Name < groups[j].Name
	})
	return groups
}

func (s *ContextService) truncate(rc *model.RecommendationContext) {
	if s.Size(rc) <= s.maxBytes {
		return
	}

	// 1. Course descriptions and regulation prose.
	for i := range rc.EligibleCourses {
		rc.EligibleCourses[i].Description = ""
	}
	rc.Regulations = ""
	if s.Size(rc) <= s.maxBytes {
		return
	}

	// 2. Oldest grade history entries, newest retained.
	for len(rc.GradeHistory) > 0 && s.Size(rc) > s.maxBytes {
		rc.GradeHistory = rc.GradeHistory[:len(rc.GradeHistory)-1]
	}
	if s.Size(rc) <= s.maxBytes {
		return
	}

	// 3. Low-priority elective detail: optional members first, then
	// recommended. Group totals always stay.
	for _, level := range []model.RecommendationLevel{model.Optional, model.Recommended} {
		for i := range rc.Specialization {
			kept := rc.Specialization[i].Members[:0]
			for _, m := range rc.Specialization[i].Members {
				if m.Level != level {
					kept = append(kept, m)
				}
			}
			rc.Specialization[i].Members = kept
		}
		if s.Size(rc) <= s.maxBytes {
			return
		}
	}
	// What remains is protected content; it is never dropped even if the
	// context stays over the bound.
}

func (s *ContextService) Size(rc *model.RecommendationContext) int {
	raw, err := json.Marshal(rc)
	if err != nil {
		return 0
	}
	return len(raw)
}

// FallbackRecommend is the deterministic greedy recommender. Eligible
// mandatory courses are scored first: retakes of failed courses outrank
// everything, then courses that unlock others, then courses overdue
// against their recommended semester; ties fall back to ascending
// recommended semester and code. Specialization electives follow by group
// priority. A course that would overflow the cap is skipped, not a
// stopping point. Probation students get no specialized electives.
func (s *ContextService) FallbackRecommend(rc *model.RecommendationContext) *model.RecommendationPlan {
	plan := &model.RecommendationPlan{Source: "fallback"}
	cap := rc.Standing.MaxCredits
	avoid := map[string]bool{}
	if rc.Preferences != nil {
		for _, code := range rc.Preferences.AvoidCourses {
			avoid[code] = true
		}
		if rc.Preferences.DesiredCredits > 0 && rc.Preferences.DesiredCredits < cap {
			cap = rc.Preferences.DesiredCredits
		}
	}

	eligible := map[string]model.ContextCourse{}
	for _, c := range rc.EligibleCourses {
		eligible[c.Code] = c
	}
	taken := map[string]bool{}

	mandatory := make([]model.ContextCourse, 0, len(rc.EligibleCourses))
	for _, c := range rc.EligibleCourses {
		if c.IsMandatory && !avoid[c.Code] {
			mandatory = append(mandatory, c)
		}
	}
	sort.Slice(mandatory, func(i, j int) bool {
		pi, pj := coursePriority(mandatory[i], rc.CurrentSemester), coursePriority(mandatory[j], rc.CurrentSemester)
		if pi != pj {
			return pi > pj
		}
		si, sj := semesterOrLast(mandatory[i].RecommendedSemester), semesterOrLast(mandatory[j].RecommendedSemester)
		if si != sj {
			return si < sj
		}
		return mandatory[i].Code < mandatory[j].Code
	})

	for _, c := range mandatory {
		if plan.TotalCredits+c.Credits > cap {
			continue
		}
		plan.Courses = append(plan.Courses, model.PlannedCourse{
			Code: c.Code, Name: c.Name, Credits: c.Credits, Reason: mandatoryReason(c),
		})
		plan.TotalCredits += c.Credits
		taken[c.Code] = true
	}

	if !rc.Standing.Probation {
		// Groups arrive sorted by priority; members by member priority.
		for _, group := range rc.Specialization {
			if group.Satisfied {
				continue
			}
			for _, member := range group.Members {
				c, ok := eligible[member.CourseCode]
				if !ok || taken[c.Code] || avoid[c.Code] {
					continue
				}
				if plan.TotalCredits+c.Credits > cap {
					continue
				}
				plan.Courses = append(plan.Courses, model.PlannedCourse{
					Code: c.Code, Name: c.Name, Credits: c.Credits, Reason: "advances the " + group.Name + " track",
				})
				plan.TotalCredits += c.Credits
				taken[c.Code] = true
			}
		}
	}

	plan.Summary = "Deterministic plan from your eligibility and credit limit."
	return plan
}

func semesterOrLast(s *int) int {
	if s == nil {
		return 99
	}
	return *s
}

// coursePriority scores one mandatory candidate. A failed course demands a
// retake before anything else; a course many others depend on is worth
// more than a leaf; a course the student is behind on gains a point per
// overdue semester.
func coursePriority(c model.ContextCourse, currentSemester int) int {
	score := 0
	if c.FailedBefore {
		score += 100
	}
	score += c.PrereqFor * 10
	if c.RecommendedSemester != nil && currentSemester > *c.RecommendedSemester {
		score += currentSemester - *c.RecommendedSemester
	}
	return score
}

func mandatoryReason(c model.ContextCourse) string {
	if c.FailedBefore {
		return "retake of a previously failed course"
	}
	if c.PrereqFor > 0 {
		return "mandatory and a prerequisite for later courses"
	}
	return "mandatory for your program"
}
