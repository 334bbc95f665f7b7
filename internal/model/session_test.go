package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradePtr(v float64) *float64 { return &v }

func TestSessionPayload_ValidateFor(t *testing.T) {
	grades := []PendingGrade{{CourseCode: "CS101", Grade: gradePtr(15), Status: GradePassed, SemesterTaken: 1}}
	plan := &RecommendationPlan{Source: "fallback", Courses: []PlannedCourse{{Code: "CS102", Credits: 4}}, TotalCredits: 4}

	tests := []struct {
		name    string
		payload *SessionPayload
		step    SessionStep
		wantErr bool
	}{
		{"idle carries nothing", &SessionPayload{}, StepIdle, false},
		{"idle rejects leftover grades", NewPendingGradesPayload(grades), StepIdle, true},
		{"awaiting registration carries nothing", &SessionPayload{}, StepAwaitingRegistration, false},
		{"grade input carries nothing", &SessionPayload{}, StepAwaitingGradeInput, false},
		{"grade confirm requires the staged grades", NewPendingGradesPayload(grades), StepAwaitingGradeConfirm, false},
		{"grade confirm rejects an empty payload", &SessionPayload{}, StepAwaitingGradeConfirm, true},
		{"grade confirm rejects a stray plan", &SessionPayload{PendingGrades: grades, Recommendation: plan}, StepAwaitingGradeConfirm, true},
		{"rec confirmation requires the plan", NewRecommendationPayload(&Preferences{DesiredCredits: 16}, plan), StepAwaitingRecConfirmation, false},
		{"rec confirmation rejects grades alongside", &SessionPayload{Recommendation: plan, PendingGrades: grades}, StepAwaitingRecConfirmation, true},
		{"unknown step", &SessionPayload{}, SessionStep("bogus"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.ValidateFor(tt.step)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSessionPayload_RoundTrip(t *testing.T) {
	session := &AdvisorSession{StudentID: 1, Step: StepAwaitingGradeConfirm}

	grades := []PendingGrade{
		{CourseCode: "CS101", Grade: gradePtr(15.5), Status: GradePassed, SemesterTaken: 1},
		{CourseCode: "MATH101", Status: GradeWithdrawn, SemesterTaken: 2},
	}
	require.NoError(t, session.SetPayload(NewPendingGradesPayload(grades)))

	decoded, err := session.DecodePayload()
	require.NoError(t, err)
	assert.Equal(t, grades, decoded.PendingGrades)
	assert.Nil(t, decoded.Recommendation)
}

func TestDecodePayload_Empty(t *testing.T) {
	session := &AdvisorSession{}

	decoded, err := session.DecodePayload()
	require.NoError(t, err)
	assert.Empty(t, decoded.PendingGrades)

	session.Payload = "{not json"
	_, err = session.DecodePayload()
	assert.Error(t, err)
}
