package service

import (
	"testing"

	"coursewise_backend/internal/config"
	"coursewise_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileTestConfig() *config.AdvisorConfig {
	return &config.AdvisorConfig{
		PassingGrade:         10,
		TotalRequiredCredits: 140,
	}
}

func rec(code string, attempt int, grade *float64, status model.GradeStatus, semester int) model.GradeRecord {
	return model.GradeRecord{
		StudentID:     1,
		CourseCode:    code,
		AttemptNumber: attempt,
		Grade:         grade,
		Status:        status,
		SemesterTaken: semester,
	}
}

func TestAggregate_BestAttemptSelection(t *testing.T) {
	svc := NewProfileService(nil, profileTestConfig())
	student := &model.Student{EntryYear: 1403, CurrentSemester: 3}
	snap := buildSnap(t, []model.Course{mkCourse("CS101", 4, model.CourseFoundation, true)}, nil, nil)

	tests := []struct {
		name        string
		records     []model.GradeRecord
		wantStatus  model.GradeStatus
		wantGrade   float64
		wantAttempt int
	}{
		{
			name: "pass beats earlier fail",
			records: []model.GradeRecord{
				rec("CS101", 1, fptr(8), model.GradeFailed, 1),
				rec("CS101", 2, fptr(14), model.GradePassed, 2),
			},
			wantStatus: model.GradePassed, wantGrade: 14, wantAttempt: 2,
		},
		{
			name: "pass beats later fail",
			records: []model.GradeRecord{
				rec("CS101", 1, fptr(12), model.GradePassed, 1),
				rec("CS101", 2, fptr(7), model.GradeFailed, 2),
			},
			wantStatus: model.GradePassed, wantGrade: 12, wantAttempt: 1,
		},
		{
			name: "higher passing grade wins",
			records: []model.GradeRecord{
				rec("CS101", 1, fptr(16), model.GradePassed, 1),
				rec("CS101", 2, fptr(12), model.GradePassed, 2),
			},
			wantStatus: model.GradePassed, wantGrade: 16, wantAttempt: 1,
		},
		{
			name: "equal passing grades latest attempt wins",
			records: []model.GradeRecord{
				rec("CS101", 1, fptr(15), model.GradePassed, 1),
				rec("CS101", 2, fptr(15), model.GradePassed, 2),
			},
			wantStatus: model.GradePassed, wantGrade: 15, wantAttempt: 2,
		},
		{
			name: "no pass latest attempt stands",
			records: []model.GradeRecord{
				rec("CS101", 1, fptr(9), model.GradeFailed, 1),
				rec("CS101", 2, fptr(5), model.GradeFailed, 2),
			},
			wantStatus: model.GradeFailed, wantGrade: 5, wantAttempt: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := svc.Aggregate(student, tt.records, snap)

			outcome, ok := profile.Outcomes["CS101"]
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, outcome.Status)
			require.NotNil(t, outcome.Grade)
			assert.Equal(t, tt.wantGrade, *outcome.Grade)
			assert.Equal(t, tt.wantAttempt, outcome.AttemptNumber)
			assert.Equal(t, len(tt.records), outcome.Attempts)
		})
	}
}

func TestAggregate_GPA(t *testing.T) {
	svc := NewProfileService(nil, profileTestConfig())
	student := &model.Student{EntryYear: 1403, CurrentSemester: 3}
	snap := buildSnap(t, []model.Course{
		mkCourse("CS101", 4, model.CourseFoundation, true),
		mkCourse("MATH101", 3, model.CourseGeneral, true),
		mkCourse("CS102", 4, model.CourseFoundation, true),
	}, nil, nil)

	t.Run("credit weighted including failures", func(t *testing.T) {
		records := []model.GradeRecord{
			rec("CS101", 1, fptr(16), model.GradePassed, 1),
			rec("MATH101", 1, fptr(8), model.GradeFailed, 1),
		}
		profile := svc.Aggregate(student, records, snap)

		// (16*4 + 8*3) / 7
		assert.InDelta(t, 12.57, profile.GPA, 0.001)
		assert.Equal(t, 7, profile.GradedCredits)
		assert.Equal(t, 4, profile.CompletedCredits)
		assert.Equal(t, 4, profile.CreditsByType[model.CourseFoundation])
	})

	t.Run("failed with no recorded grade counts as zero", func(t *testing.T) {
		records := []model.GradeRecord{
			rec("CS101", 1, fptr(16), model.GradePassed, 1),
			rec("MATH101", 1, nil, model.GradeFailed, 1),
		}
		profile := svc.Aggregate(student, records, snap)

		// (16*4 + 0*3) / 7
		assert.InDelta(t, 9.14, profile.GPA, 0.001)
	})

	t.Run("withdrawal is GPA neutral", func(t *testing.T) {
		records := []model.GradeRecord{
			rec("CS101", 1, fptr(16), model.GradePassed, 1),
			rec("MATH101", 1, nil, model.GradeWithdrawn, 1),
		}
		profile := svc.Aggregate(student, records, snap)

		assert.Equal(t, 16.0, profile.GPA)
		assert.Equal(t, 4, profile.GradedCredits, "the withdrawal carries no weight")
	})

	t.Run("withdrawn-only transcript carries no graded credits", func(t *testing.T) {
		records := []model.GradeRecord{
			rec("MATH101", 1, nil, model.GradeWithdrawn, 1),
		}
		profile := svc.Aggregate(student, records, snap)

		assert.Zero(t, profile.GPA)
		assert.Zero(t, profile.GradedCredits)
		assert.Len(t, profile.Outcomes, 1)
	})

	t.Run("course unknown to the snapshot carries no weight", func(t *testing.T) {
		records := []model.GradeRecord{
			rec("CS101", 1, fptr(16), model.GradePassed, 1),
			rec("OLD999", 1, fptr(10), model.GradePassed, 1),
		}
		profile := svc.Aggregate(student, records, snap)

		assert.Equal(t, 16.0, profile.GPA)
		assert.Equal(t, 4, profile.CompletedCredits)
	})

	t.Run("no graded work yields zero GPA", func(t *testing.T) {
		profile := svc.Aggregate(student, nil, snap)
		assert.Zero(t, profile.GPA)
		assert.Empty(t, profile.Outcomes)
	})
}

func TestGraduationProgress(t *testing.T) {
	svc := NewProfileService(nil, profileTestConfig())

	tests := []struct {
		earned    int
		wantLevel string
	}{
		{0, "beginning"},
		{34, "beginning"},
		{35, "intermediate"},
		{70, "advanced"},
		{105, "final"},
		{140, "final"},
	}
	for _, tt := range tests {
		progress := svc.GraduationProgress(&model.StudentProfile{CompletedCredits: tt.earned})
		assert.Equal(t, tt.wantLevel, progress.Level, "earned %d", tt.earned)
		assert.Equal(t, 140, progress.RequiredCredits)
	}

	t.Run("semesters remaining", func(t *testing.T) {
		progress := svc.GraduationProgress(&model.StudentProfile{CompletedCredits: 104})
		assert.Equal(t, 2, progress.SemestersRemaining)

		done := svc.GraduationProgress(&model.StudentProfile{CompletedCredits: 140})
		assert.Zero(t, done.SemestersRemaining)
		assert.Equal(t, 100.0, done.Percent)
	})
}
