package service

import (
	"coursewise_backend/internal/config"
	"coursewise_backend/internal/model"
	"coursewise_backend/internal/util"
	"fmt"
	"sort"
)

// StandingService maps a GPA onto a per-term credit envelope using a
// configured tier table. The table must cover every possible GPA: the
// first threshold is zero and thresholds rise strictly, so lookup is
// total and the cap never decreases as the GPA improves.
type StandingService struct {
	tiers              []config.CreditTierConfig
	probationGPA       float64
	minCredits         int
	finalSemesterBonus int
}

func NewStandingService(cfg *config.AdvisorConfig) (*StandingService, error) {
	if len(cfg.CreditTiers) == 0 {
		return nil, fmt.Errorf("credit tier table is empty")
	}

	tiers := make([]config.CreditTierConfig, len(cfg.CreditTiers))
	copy(tiers, cfg.CreditTiers)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinGPA < tiers[j].MinGPA })

	if tiers[0].MinGPA != 0 {
		return nil, fmt.Errorf("credit tier table must start at GPA 0, got %.2f", tiers[0].MinGPA)
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i].MinGPA <= tiers[i-1].MinGPA {
			return nil, fmt.Errorf("credit tier thresholds must rise strictly: %.2f after %.2f", tiers[i].MinGPA, tiers[i-1].MinGPA)
		}
		if tiers[i].MaxCredits < tiers[i-1].MaxCredits {
			return nil, fmt.Errorf("credit cap must not decrease with GPA: %d after %d", tiers[i].MaxCredits, tiers[i-1].MaxCredits)
		}
	}

	return &StandingService{
		tiers:              tiers,
		probationGPA:       cfg.ProbationGPA,
		minCredits:         cfg.MinCreditsPerTerm,
		finalSemesterBonus: cfg.FinalSemesterBonus,
	}, nil
}

// Evaluate computes the credit envelope. A student with no graded courses
// yet gets the base tier. The final semester widens the cap by the
// configured overload allowance so a student one course short can finish.
func (s *StandingService) Evaluate(profile *model.StudentProfile, finalSemester bool) model.Standing {
	max := s.tiers[0].MaxCredits
	for _, tier := range s.tiers {
		if profile.GPA >= tier.MinGPA {
			max = tier.MaxCredits
		}
	}

	if finalSemester {
		max += s.finalSemesterBonus
	}

	// A student is graded only once some credit weight entered the GPA.
	// A transcript of nothing but withdrawals is GPA-neutral and cannot
	// put anyone on probation.
	graded := profile.GradedCredits > 0
	probation := graded && profile.GPA < s.probationGPA

	return model.Standing{
		GPA:           profile.GPA,
		Label:         standingLabel(profile.GPA, graded, probation),
		MaxCredits:    max,
		MinCredits:    s.minCredits,
		Probation:     probation,
		FinalSemester: finalSemester,
	}
}

// CheckRequestedCredits rejects a preference asking for more credits than
// the standing allows. The limit is reported back structured, not clamped.
func (s *StandingService) CheckRequestedCredits(prefs *model.Preferences, standing model.Standing) error {
	if prefs == nil || prefs.DesiredCredits == 0 {
		return nil
	}
	if prefs.DesiredCredits > standing.MaxCredits {
		return &util.CreditLimitExceededError{
			Requested: prefs.DesiredCredits,
			Limit:     standing.MaxCredits,
		}
	}
	return nil
}

func standingLabel(gpa float64, graded, probation bool) model.StandingLabel {
	switch {
	case probation:
		return model.StandingProbation
	case !graded:
		return model.StandingNormal
	case gpa >= 17:
		return model.StandingExcellent
	case gpa >= 15:
		return model.StandingGood
	default:
		return model.StandingNormal
	}
}
