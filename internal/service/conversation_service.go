package service

import (
	"coursewise_backend/internal/model"
	"coursewise_backend/internal/util"
	"coursewise_backend/pkg/logger"
	"coursewise_backend/pkg/monitoring"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionStore is what the state machine needs from persistence. The
// gorm-backed repository implements it; tests substitute an in-memory one.
type SessionStore interface {
	FindByStudent(studentID uint) (*model.AdvisorSession, error)
	Create(session *model.AdvisorSession) error
	UpdateConditional(session *model.AdvisorSession, expectedSeq uint64) (bool, error)
	CommitGrades(session *model.AdvisorSession, expectedSeq uint64, grades []model.PendingGrade) (bool, error)
	ResetExpired(now time.Time, ttl time.Duration) (int64, error)
}

type EventKind string

const (
	EventStart         EventKind = "start"
	EventRegister      EventKind = "register"
	EventSubmitGrades  EventKind = "submit_grades"
	EventConfirmGrades EventKind = "confirm_grades"
	EventRejectGrades  EventKind = "reject_grades"
	EventSubmitPrefs   EventKind = "submit_preferences"
	EventConfirmRec    EventKind = "confirm_recommendation"
	EventReset         EventKind = "reset"
)

// Event is one inbound conversation step. Only the field matching the
// kind is read.
type Event struct {
	Kind          EventKind
	Registration  *model.RegistrationDraft
	PendingGrades []model.PendingGrade
	Preferences   *model.Preferences
	Plan          *model.RecommendationPlan
}

// ConversationService serializes each student's advisor conversation.
// Every transition is computed against the sequence number it was read at
// and written conditionally on it, so two concurrent events against the
// same session resolve to exactly one winner; the loser gets
// ErrConcurrentModification and may retry against fresh state.
type ConversationService struct {
	Store SessionStore

	ttl time.Duration
	now func() time.Time
}

func NewConversationService(store SessionStore, ttl time.Duration) *ConversationService {
	return &ConversationService{
		Store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Current returns the session, creating an idle one on first contact and
// resetting it in place when it has expired.
func (s *ConversationService) Current(studentID uint) (*model.AdvisorSession, error) {
	session, _, err := s.current(studentID)
	return session, err
}

// current additionally reports whether this access reset an expired
// session, so Advance can tell the caller their conversation is gone
// instead of rejecting the event with step guidance for a step they
// never left voluntarily.
func (s *ConversationService) current(studentID uint) (*model.AdvisorSession, bool, error) {
	session, err := s.Store.FindByStudent(studentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		session = &model.AdvisorSession{
			StudentID: studentID,
			Step:      model.StepIdle,
			ExpiresAt: s.now().Add(s.ttl),
		}
		if createErr := s.Store.Create(session); createErr != nil {
			// Lost a creation race; the winner's row is authoritative.
			found, findErr := s.Store.FindByStudent(studentID)
			return found, false, findErr
		}
		return session, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if session.Step == model.StepIdle || s.now().Before(session.ExpiresAt) {
		return session, false, nil
	}
	reset, err := s.expireInPlace(session)
	if err != nil {
		return nil, false, err
	}
	return reset, true, nil
}

// Advance applies one event. A rejected event returns the unchanged
// session together with a GuidanceError telling the student what the
// conversation expects; nothing is written in that case.
func (s *ConversationService) Advance(studentID uint, event Event) (*model.AdvisorSession, error) {
	session, expired, err := s.current(studentID)
	if err != nil {
		return nil, err
	}
	// Start and reset make sense against a freshly reset session; any
	// other event was aimed at state that no longer exists.
	if expired && event.Kind != EventStart && event.Kind != EventReset {
		return session, util.ErrSessionExpired
	}

	nextStep, payload, err := s.transition(session, event)
	if err != nil {
		return session, err
	}

	expectedSeq := session.Seq
	fromStep := session.Step

	updated := *session
	updated.Step = nextStep
	updated.Seq = expectedSeq + 1
	if err := payload.ValidateFor(nextStep); err != nil {
		return session, err
	}
	if err := updated.SetPayload(payload); err != nil {
		return session, err
	}
	// The deadline only ever moves forward.
	if deadline := s.now().Add(s.ttl); deadline.After(updated.ExpiresAt) {
		updated.ExpiresAt = deadline
	}

	var applied bool
	if event.Kind == EventConfirmGrades {
		prev, decodeErr := session.DecodePayload()
		if decodeErr != nil {
			return session, decodeErr
		}
		applied, err = s.Store.CommitGrades(&updated, expectedSeq, prev.PendingGrades)
	} else {
		applied, err = s.Store.UpdateConditional(&updated, expectedSeq)
	}
	if err != nil {
		return nil, err
	}
	if !applied {
		monitoring.SessionConflictCounter.Inc()
		return nil, util.ErrConcurrentModification
	}

	monitoring.SessionTransitionCounter.WithLabelValues(string(fromStep), string(nextStep)).Inc()
	logger.Log.Debug("session transition",
		zap.Uint("student_id", studentID),
		zap.String("from", string(fromStep)),
		zap.String("to", string(nextStep)),
		zap.Uint64("seq", updated.Seq),
	)
	return &updated, nil
}

// transition is the pure step table. It validates event payloads but
// never touches storage.
func (s *ConversationService) transition(session *model.AdvisorSession, event Event) (model.SessionStep, *model.SessionPayload, error) {
	if event.Kind == EventReset {
		return model.StepIdle, &model.SessionPayload{}, nil
	}

	switch session.Step {
	case model.StepIdle:
		if event.Kind == EventStart {
			return model.StepAwaitingRegistration, &model.SessionPayload{}, nil
		}

	case model.StepAwaitingRegistration:
		if event.Kind == EventRegister {
			if err := validateRegistration(event.Registration); err != nil {
				return "", nil, err
			}
			return model.StepAwaitingGradeInput, &model.SessionPayload{}, nil
		}

	case model.StepAwaitingGradeInput:
		if event.Kind == EventSubmitGrades {
			if len(event.PendingGrades) == 0 {
				return "", nil, &util.ValidationError{Field: "grades", Message: "no confirmed grade entries to stage"}
			}
			return model.StepAwaitingGradeConfirm, model.NewPendingGradesPayload(event.PendingGrades), nil
		}

	case model.StepAwaitingGradeConfirm:
		switch event.Kind {
		case EventConfirmGrades:
			return model.StepAwaitingPreferences, &model.SessionPayload{}, nil
		case EventRejectGrades:
			return model.StepAwaitingGradeInput, &model.SessionPayload{}, nil
		}

	case model.StepAwaitingPreferences:
		if event.Kind == EventSubmitPrefs {
			if event.Plan == nil {
				return "", nil, &util.ValidationError{Field: "plan", Message: "no recommendation computed for preferences"}
			}
			return model.StepAwaitingRecConfirmation, model.NewRecommendationPayload(event.Preferences, event.Plan), nil
		}

	case model.StepAwaitingRecConfirmation:
		switch event.Kind {
		case EventConfirmRec:
			return model.StepIdle, &model.SessionPayload{}, nil
		case EventSubmitPrefs:
			// Revised preferences replace the pending plan.
			if event.Plan == nil {
				return "", nil, &util.ValidationError{Field: "plan", Message: "no recommendation computed for preferences"}
			}
			return model.StepAwaitingRecConfirmation, model.NewRecommendationPayload(event.Preferences, event.Plan), nil
		}
	}

	return "", nil, &util.GuidanceError{
		CurrentStep: session.Step,
		Event:       string(event.Kind),
		Guidance:    guidanceFor(session.Step),
	}
}

func guidanceFor(step model.SessionStep) string {
	switch step {
	case model.StepIdle:
		return "start a new advisor session first"
	case model.StepAwaitingRegistration:
		return "submit your student number, entry year and current semester"
	case model.StepAwaitingGradeInput:
		return "submit your grades, or reset to start over"
	case model.StepAwaitingGradeConfirm:
		return "confirm or reject the staged grades"
	case model.StepAwaitingPreferences:
		return "submit your preferences for the coming term"
	case model.StepAwaitingRecConfirmation:
		return "confirm the recommendation, or submit revised preferences"
	default:
		return "reset the session"
	}
}

func validateRegistration(d *model.RegistrationDraft) error {
	if d == nil {
		return &util.ValidationError{Field: "registration", Message: "missing registration details"}
	}
	if d.StudentNumber == "" {
		return &util.ValidationError{Field: "studentNumber", Message: "student number is required"}
	}
	if d.EntryYear < 1300 || d.EntryYear > 1500 {
		return &util.ValidationError{Field: "entryYear", Message: fmt.Sprintf("entry year %d is out of range", d.EntryYear)}
	}
	if d.CurrentSemester < 1 || d.CurrentSemester > 16 {
		return &util.ValidationError{Field: "currentSemester", Message: fmt.Sprintf("semester %d is out of range", d.CurrentSemester)}
	}
	return nil
}

// expireInPlace resets an expired session to idle before the triggering
// request proceeds. The stale payload is discarded.
func (s *ConversationService) expireInPlace(session *model.AdvisorSession) (*model.AdvisorSession, error) {
	reset := *session
	reset.Step = model.StepIdle
	reset.Seq = session.Seq + 1
	reset.Payload = ""
	reset.ExpiresAt = s.now().Add(s.ttl)

	applied, err := s.Store.UpdateConditional(&reset, session.Seq)
	if err != nil {
		return nil, err
	}
	if !applied {
		monitoring.SessionConflictCounter.Inc()
		return nil, util.ErrConcurrentModification
	}

	logger.Log.Info("expired session reset", zap.Uint("student_id", session.StudentID))
	return &reset, nil
}

// SweepExpired is run periodically in the background; on-access expiry
// alone would leave abandoned sessions holding stale payloads forever.
func (s *ConversationService) SweepExpired() error {
	n, err := s.Store.ResetExpired(s.now(), s.ttl)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Log.Info("session sweep reset expired sessions", zap.Int64("count", n))
	}
	return nil
}
