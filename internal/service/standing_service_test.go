package service

import (
	"errors"
	"testing"

	"coursewise_backend/internal/config"
	"coursewise_backend/internal/model"
	"coursewise_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standingTestConfig() *config.AdvisorConfig {
	return &config.AdvisorConfig{
		ProbationGPA:       12,
		MinCreditsPerTerm:  14,
		FinalSemesterBonus: 4,
		CreditTiers: []config.CreditTierConfig{
			{MinGPA: 0, MaxCredits: 16},
			{MinGPA: 12, MaxCredits: 18},
			{MinGPA: 15, MaxCredits: 20},
			{MinGPA: 17, MaxCredits: 24},
		},
	}
}

func TestNewStandingService_TierValidation(t *testing.T) {
	tests := []struct {
		name  string
		tiers []config.CreditTierConfig
	}{
		{"empty table", nil},
		{"first threshold not zero", []config.CreditTierConfig{{MinGPA: 10, MaxCredits: 16}}},
		{"duplicate threshold", []config.CreditTierConfig{
			{MinGPA: 0, MaxCredits: 16},
			{MinGPA: 0, MaxCredits: 18},
		}},
		{"cap decreases", []config.CreditTierConfig{
			{MinGPA: 0, MaxCredits: 18},
			{MinGPA: 12, MaxCredits: 16},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := standingTestConfig()
			cfg.CreditTiers = tt.tiers
			_, err := NewStandingService(cfg)
			assert.Error(t, err)
		})
	}
}

func TestEvaluate_TierLookup(t *testing.T) {
	svc, err := NewStandingService(standingTestConfig())
	require.NoError(t, err)

	graded := func(gpa float64) *model.StudentProfile {
		return &model.StudentProfile{
			GPA:           gpa,
			GradedCredits: 4,
			Outcomes:      map[string]model.CourseOutcome{"CS101": passedOutcome("CS101", gpa, 1, 4)},
		}
	}

	tests := []struct {
		gpa       float64
		wantMax   int
		wantLabel model.StandingLabel
	}{
		{5, 16, model.StandingProbation},
		{11.99, 16, model.StandingProbation},
		{12, 18, model.StandingNormal},
		{14.99, 18, model.StandingNormal},
		{15, 20, model.StandingGood},
		{17, 24, model.StandingExcellent},
		{20, 24, model.StandingExcellent},
	}
	for _, tt := range tests {
		standing := svc.Evaluate(graded(tt.gpa), false)
		assert.Equal(t, tt.wantMax, standing.MaxCredits, "gpa %.2f", tt.gpa)
		assert.Equal(t, tt.wantLabel, standing.Label, "gpa %.2f", tt.gpa)
		assert.Equal(t, 14, standing.MinCredits)
	}
}

func TestEvaluate_UngradedStudentGetsBaseTier(t *testing.T) {
	svc, err := NewStandingService(standingTestConfig())
	require.NoError(t, err)

	standing := svc.Evaluate(&model.StudentProfile{}, false)
	assert.Equal(t, 16, standing.MaxCredits)
	assert.False(t, standing.Probation, "a student with no grades is not on probation")
	assert.Equal(t, model.StandingNormal, standing.Label)
}

func TestEvaluate_FinalSemesterBonus(t *testing.T) {
	svc, err := NewStandingService(standingTestConfig())
	require.NoError(t, err)

	profile := &model.StudentProfile{
		GPA:           16,
		GradedCredits: 4,
		Outcomes:      map[string]model.CourseOutcome{"CS101": passedOutcome("CS101", 16, 1, 4)},
	}

	assert.Equal(t, 20, svc.Evaluate(profile, false).MaxCredits)

	final := svc.Evaluate(profile, true)
	assert.Equal(t, 24, final.MaxCredits)
	assert.True(t, final.FinalSemester)
}

func TestEvaluate_UnsortedTierTableIsSorted(t *testing.T) {
	cfg := standingTestConfig()
	cfg.CreditTiers = []config.CreditTierConfig{
		{MinGPA: 15, MaxCredits: 20},
		{MinGPA: 0, MaxCredits: 16},
		{MinGPA: 12, MaxCredits: 18},
	}
	svc, err := NewStandingService(cfg)
	require.NoError(t, err)

	profile := &model.StudentProfile{
		GPA:           13,
		GradedCredits: 4,
		Outcomes:      map[string]model.CourseOutcome{"CS101": passedOutcome("CS101", 13, 1, 4)},
	}
	assert.Equal(t, 18, svc.Evaluate(profile, false).MaxCredits)
}

func TestEvaluate_WithdrawnOnlyStudentIsNotOnProbation(t *testing.T) {
	svc, err := NewStandingService(standingTestConfig())
	require.NoError(t, err)

	// One withdrawal and nothing else: the GPA is 0 but vacuous, since no
	// credit weight ever entered it.
	profile := &model.StudentProfile{
		Outcomes: map[string]model.CourseOutcome{
			"CS101": {CourseCode: "CS101", Status: model.GradeWithdrawn, SemesterTaken: 1, Credits: 4},
		},
	}

	standing := svc.Evaluate(profile, false)
	assert.False(t, standing.Probation)
	assert.Equal(t, model.StandingNormal, standing.Label)
	assert.Equal(t, 16, standing.MaxCredits)
}

func TestCheckRequestedCredits(t *testing.T) {
	svc, err := NewStandingService(standingTestConfig())
	require.NoError(t, err)

	standing := model.Standing{MaxCredits: 18}

	t.Run("within the cap", func(t *testing.T) {
		assert.NoError(t, svc.CheckRequestedCredits(&model.Preferences{DesiredCredits: 18}, standing))
	})

	t.Run("no preference stated", func(t *testing.T) {
		assert.NoError(t, svc.CheckRequestedCredits(nil, standing))
		assert.NoError(t, svc.CheckRequestedCredits(&model.Preferences{}, standing))
	})

	t.Run("over the cap is rejected, not clamped", func(t *testing.T) {
		err := svc.CheckRequestedCredits(&model.Preferences{DesiredCredits: 22}, standing)
		require.Error(t, err)

		var limit *util.CreditLimitExceededError
		require.True(t, errors.As(err, &limit))
		assert.Equal(t, 22, limit.Requested)
		assert.Equal(t, 18, limit.Limit)
	})
}
