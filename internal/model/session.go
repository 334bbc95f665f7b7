package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type SessionStep string

const (
	StepIdle                    SessionStep = "idle"
	StepAwaitingRegistration    SessionStep = "awaiting_registration"
	StepAwaitingGradeInput      SessionStep = "awaiting_grade_input"
	StepAwaitingGradeConfirm    SessionStep = "awaiting_grade_confirmation"
	StepAwaitingPreferences     SessionStep = "awaiting_preferences"
	StepAwaitingRecConfirmation SessionStep = "awaiting_recommendation_confirmation"
)

// AdvisorSession is the per-student conversation state. Seq is a monotonic
// sequence number; every transition is written conditionally on the sequence
// it was computed from, so concurrent events cannot interleave.
// swagger:model AdvisorSession
type AdvisorSession struct {
	BaseModel
	StudentID uint        `gorm:"uniqueIndex;not null" json:"studentId"`
	Step      SessionStep `gorm:"size:40;default:'idle'" json:"step"`
	Seq       uint64      `gorm:"not null;default:0" json:"seq"`
	Payload   string      `gorm:"type:json" json:"-"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func (AdvisorSession) TableName() string {
	return "advisor_sessions"
}

// RegistrationDraft is collected while confirming who the student is.
type RegistrationDraft struct {
	StudentNumber   string `json:"studentNumber"`
	Major           string `json:"major"`
	EntryYear       int    `json:"entryYear"`
	CurrentSemester int    `json:"currentSemester"`
}

// PendingGrade is a reconciled grade waiting for the student's confirmation.
type PendingGrade struct {
	CourseCode    string      `json:"courseCode"`
	Grade         *float64    `json:"grade,omitempty"`
	Status        GradeStatus `json:"status"`
	SemesterTaken int         `json:"semesterTaken"`
}

// Preferences are the knobs the student can set before a recommendation.
type Preferences struct {
	DesiredCredits int      `json:"desiredCredits,omitempty"`
	Interests      []string `json:"interests,omitempty"`
	AvoidCourses   []string `json:"avoidCourses,omitempty"`
	FinalSemester  bool     `json:"finalSemester,omitempty"`
}

// SessionPayload is a step-typed variant: only the field matching the
// current step may be set. Use the New*Payload constructors.
type SessionPayload struct {
	PendingGrades  []PendingGrade      `json:"pendingGrades,omitempty"`
	Preferences    *Preferences        `json:"preferences,omitempty"`
	Recommendation *RecommendationPlan `json:"recommendation,omitempty"`
}

func NewPendingGradesPayload(grades []PendingGrade) *SessionPayload {
	return &SessionPayload{PendingGrades: grades}
}

func NewRecommendationPayload(prefs *Preferences, plan *RecommendationPlan) *SessionPayload {
	return &SessionPayload{Preferences: prefs, Recommendation: plan}
}

// ValidateFor rejects payloads that do not match the step they are stored
// under. An idle session carries no payload at all.
func (p *SessionPayload) ValidateFor(step SessionStep) error {
	empty := p == nil || (len(p.PendingGrades) == 0 && p.Preferences == nil && p.Recommendation == nil)
	switch step {
	case StepIdle, StepAwaitingRegistration, StepAwaitingGradeInput, StepAwaitingPreferences:
		if !empty {
			return fmt.Errorf("step %s carries no payload", step)
		}
	case StepAwaitingGradeConfirm:
		if p == nil || len(p.PendingGrades) == 0 || p.Recommendation != nil {
			return fmt.Errorf("step %s requires exactly the pending grades", step)
		}
	case StepAwaitingRecConfirmation:
		if p == nil || p.Recommendation == nil || len(p.PendingGrades) > 0 {
			return fmt.Errorf("step %s requires exactly the recommendation", step)
		}
	default:
		return fmt.Errorf("unknown session step %q", step)
	}
	return nil
}

func (s *AdvisorSession) DecodePayload() (*SessionPayload, error) {
	if s.Payload == "" || s.Payload == "null" {
		return &SessionPayload{}, nil
	}
	var p SessionPayload
	if err := json.Unmarshal([]byte(s.Payload), &p); err != nil {
		return nil, fmt.Errorf("decode session payload: %w", err)
	}
	return &p, nil
}

func (s *AdvisorSession) SetPayload(p *SessionPayload) error {
	if p == nil {
		s.Payload = ""
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode session payload: %w", err)
	}
	s.Payload = string(raw)
	return nil
}
