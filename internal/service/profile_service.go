package service

import (
	"coursewise_backend/internal/config"
	"coursewise_backend/internal/model"
	"coursewise_backend/internal/repository"
	"math"
)

// ProfileService folds raw grade records into the authoritative academic
// profile: one outcome per course, credit-weighted GPA, completed credits.
type ProfileService struct {
	GradeRepo *repository.GradeRepository
	Cfg       *config.AdvisorConfig
}

func NewProfileService(gradeRepo *repository.GradeRepository, cfg *config.AdvisorConfig) *ProfileService {
	return &ProfileService{GradeRepo: gradeRepo, Cfg: cfg}
}

func (s *ProfileService) ProfileFor(student *model.Student, snap *CurriculumSnapshot) (*model.StudentProfile, error) {
	records, err := s.GradeRepo.ListByStudent(student.ID)
	if err != nil {
		return nil, err
	}
	return s.Aggregate(student, records, snap), nil
}

// Aggregate is pure: it never touches storage. Outcome selection per
// course: any passed attempt beats any non-passed one; among passed
// attempts the highest grade wins and the latest attempt breaks grade
// ties; with no passed attempt the latest attempt stands as is.
func (s *ProfileService) Aggregate(student *model.Student, records []model.GradeRecord, snap *CurriculumSnapshot) *model.StudentProfile {
	best := map[string]model.GradeRecord{}
	attempts := map[string]int{}

	for _, rec := range records {
		attempts[rec.CourseCode]++
		cur, seen := best[rec.CourseCode]
		if !seen || outcomeBeats(rec, cur) {
			best[rec.CourseCode] = rec
		}
	}

	profile := &model.StudentProfile{
		StudentID:       student.ID,
		EntryYear:       student.EntryYear,
		CurrentSemester: student.CurrentSemester,
		CreditsByType:   map[model.CourseType]int{},
		Outcomes:        map[string]model.CourseOutcome{},
	}

	var weighted, weights float64
	for code, rec := range best {
		credits := 0
		var courseType model.CourseType
		if course, ok := snap.Course(code); ok {
			credits = course.TotalCredits()
			courseType = course.Type
		}

		profile.Outcomes[code] = model.CourseOutcome{
			CourseCode:    code,
			Grade:         rec.Grade,
			Status:        rec.Status,
			SemesterTaken: rec.SemesterTaken,
			AttemptNumber: rec.AttemptNumber,
			Attempts:      attempts[code],
			Credits:       credits,
		}

		if rec.Status == model.GradePassed {
			profile.CompletedCredits += credits
			profile.CreditsByType[courseType] += credits
		}

		// Withdrawals are GPA-neutral; a failed attempt without a
		// recorded grade counts as zero. Courses unknown to the
		// snapshot carry no credit weight and cannot contribute.
		if rec.Status == model.GradeWithdrawn || credits == 0 {
			continue
		}
		grade := 0.0
		if rec.Grade != nil {
			grade = *rec.Grade
		}
		weighted += grade * float64(credits)
		weights += float64(credits)
	}

	profile.GradedCredits = int(weights)
	if weights > 0 {
		profile.GPA = math.Round(weighted/weights*100) / 100
	}

	return profile
}

// outcomeBeats reports whether candidate should replace current as the
// authoritative outcome.
func outcomeBeats(candidate, current model.GradeRecord) bool {
	cPass := candidate.Status == model.GradePassed
	curPass := current.Status == model.GradePassed

	if cPass != curPass {
		return cPass
	}
	if !cPass {
		// Neither passed: the latest attempt stands.
		return candidate.AttemptNumber > current.AttemptNumber
	}

	cg, curg := gradeOrZero(candidate.Grade), gradeOrZero(current.Grade)
	if cg != curg {
		return cg > curg
	}
	return candidate.AttemptNumber > current.AttemptNumber
}

func gradeOrZero(g *float64) float64 {
	if g == nil {
		return 0
	}
	return *g
}

// GraduationProgress reports earned credits against the program total and
// a coarse stage label used by the recommendation context.
func (s *ProfileService) GraduationProgress(profile *model.StudentProfile) model.GraduationProgress {
	required := s.Cfg.TotalRequiredCredits
	earned := profile.CompletedCredits

	level := "beginning"
	switch {
	case earned >= 105:
		level = "final"
	case earned >= 70:
		level = "advanced"
	case earned >= 35:
		level = "intermediate"
	}

	remaining := required - earned
	if remaining < 0 {
		remaining = 0
	}
	// Assume a plain full load for the estimate.
	perTerm := 18
	semesters := (remaining + perTerm - 1) / perTerm

	percent := 0.0
	if required > 0 {
		percent = math.Round(float64(earned)/float64(required)*10000) / 100
	}

	return model.GraduationProgress{
		RequiredCredits:    required,
		EarnedCredits:      earned,
		Percent:            percent,
		Level:              level,
		SemestersRemaining: semesters,
	}
}
