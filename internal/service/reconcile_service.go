package service

import (
	"coursewise_backend/internal/config"
	"coursewise_backend/internal/model"
	"fmt"
	"sort"
	"strings"
)

// ReconcileService matches free-form grade entries against the catalog.
// It is pure and idempotent: the same entries against the same snapshot
// always produce the same outcomes, and nothing is written here — commits
// happen only after the student confirms.
type ReconcileService struct {
	passingGrade float64
	confidence   float64
}

func NewReconcileService(cfg *config.AdvisorConfig) *ReconcileService {
	return &ReconcileService{
		passingGrade: cfg.PassingGrade,
		confidence:   cfg.MatchConfidence,
	}
}

func (s *ReconcileService) Reconcile(entries []model.ParsedGradeEntry, snap *CurriculumSnapshot) []model.ReconcileOutcome {
	outcomes := make([]model.ReconcileOutcome, 0, len(entries))
	for _, entry := range entries {
		outcomes = append(outcomes, s.reconcileOne(entry, snap))
	}
	return outcomes
}

func (s *ReconcileService) reconcileOne(entry model.ParsedGradeEntry, snap *CurriculumSnapshot) model.ReconcileOutcome {
	out := model.ReconcileOutcome{Entry: entry}

	if entry.Label == "" {
		out.Kind = model.ReconcileInvalid
		out.Error = "empty course label"
		return out
	}
	// Grades outside the 0-20 scale are rejected, never clamped.
	if entry.Grade != nil && (*entry.Grade < 0 || *entry.Grade > 20) {
		out.Kind = model.ReconcileInvalid
		out.Error = fmt.Sprintf("grade %.2f outside the 0-20 scale", *entry.Grade)
		return out
	}
	if entry.Grade == nil && !entry.Withdrawn {
		out.Kind = model.ReconcileInvalid
		out.Error = "entry has neither a grade nor a withdrawal mark"
		return out
	}

	candidates := s.match(entry.Label, snap)
	if len(candidates) == 0 {
		out.Kind = model.ReconcileAmbiguous
		return out
	}

	if candidates[0].Confidence >= s.confidence &&
		(len(candidates) == 1 || candidates[0].Confidence > candidates[1].Confidence) {
		out.Kind = model.ReconcileConfirmed
		out.Confirmed = &model.PendingGrade{
			CourseCode:    candidates[0].CourseCode,
			Grade:         entry.Grade,
			Status:        s.status(entry),
			SemesterTaken: entry.Semester,
		}
		return out
	}

	out.Kind = model.ReconcileAmbiguous
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}
	out.Candidates = candidates
	return out
}

func (s *ReconcileService) status(entry model.ParsedGradeEntry) model.GradeStatus {
	if entry.Withdrawn {
		return model.GradeWithdrawn
	}
	if *entry.Grade >= s.passingGrade {
		return model.GradePassed
	}
	return model.GradeFailed
}

// match scores the normalized label against every course of the snapshot
// and returns candidates in descending confidence, code as tie-break.
func (s *ReconcileService) match(label string, snap *CurriculumSnapshot) []model.MatchCandidate {
	norm := NormalizeLabel(label)

	var candidates []model.MatchCandidate
	for _, course := range snap.SortedCourses() {
		score := matchScore(norm, course)
		if score <= 0 {
			continue
		}
		candidates = append(candidates, model.MatchCandidate{
			CourseCode: course.Code,
			Name:       course.Name,
			Confidence: score,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].CourseCode < candidates[j].CourseCode
	})
	return candidates
}

func matchScore(norm string, course *model.Course) float64 {
	code := NormalizeLabel(course.Code)
	name := NormalizeLabel(course.Name)

	switch {
	case norm == code || norm == name:
		return 1
	case strings.HasPrefix(name, norm) && len(norm) >= 4:
		return 0.9
	case strings.Contains(name, norm) && len(norm) >= 4:
		return 0.7 * float64(len(norm)) / float64(len(name))
	case strings.HasPrefix(code, norm) && len(norm) >= 3:
		return 0.6
	default:
		return 0
	}
}

// NormalizeLabel folds case, collapses whitespace and maps Persian and
// Arabic-Indic digits to ASCII, so transcript text pasted in either
// script matches the catalog.
func NormalizeLabel(label string) string {
	var b strings.Builder
	b.Grow(len(label))

	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		switch {
		case r >= '۰' && r <= '۹': // Persian digits
			r = '0' + (r - '۰')
		case r >= '٠' && r <= '٩': // Arabic-Indic digits
			r = '0' + (r - '٠')
		}
		if r == ' ' || r == '\t' || r == '‌' {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}
