package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coursewise_backend/internal/config"
	"coursewise_backend/internal/model"
	"coursewise_backend/internal/repository"
	"coursewise_backend/internal/util"
	"coursewise_backend/pkg/logger"
	"coursewise_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Recommender is the generation capability seen by the orchestrator.
type Recommender interface {
	Recommend(ctx context.Context, rc *model.RecommendationContext) (*model.RecommendationPlan, error)
	Chat(ctx context.Context, question string, rc *model.RecommendationContext) (string, error)
}

// AdvisorService drives the whole advising flow: conversation events in,
// reconciliation and the eligibility pipeline in the middle, a
// recommendation out. Concurrent events for one student are shed early
// with a short redis lock; the session sequence number remains the
// authority on which write wins.
type AdvisorService struct {
	StudentRepo    *repository.StudentRepository
	Curriculum     *CurriculumService
	Profile        *ProfileService
	Eligibility    *EligibilityService
	Standing       *StandingService
	Specialization *SpecializationService
	Reconcile      *ReconcileService
	Conversation   *ConversationService
	Context        *ContextService
	Generator      Recommender

	rdb *redis.Client
	cfg *config.AdvisorConfig
}

func NewAdvisorService(
	studentRepo *repository.StudentRepository,
	curriculum *CurriculumService,
	profile *ProfileService,
	eligibility *EligibilityService,
	standing *StandingService,
	specialization *SpecializationService,
	reconcile *ReconcileService,
	conversation *ConversationService,
	contextSvc *ContextService,
	generator Recommender,
	rdb *redis.Client,
	cfg *config.AdvisorConfig,
) *AdvisorService {
	return &AdvisorService{
		StudentRepo:    studentRepo,
		Curriculum:     curriculum,
		Profile:        profile,
		Eligibility:    eligibility,
		Standing:       standing,
		Specialization: specialization,
		Reconcile:      reconcile,
		Conversation:   conversation,
		Context:        contextSvc,
		Generator:      generator,
		rdb:            rdb,
		cfg:            cfg,
	}
}

func (s *AdvisorService) Session(studentID uint) (*model.AdvisorSession, error) {
	return s.Conversation.Current(studentID)
}

func (s *AdvisorService) Start(studentID uint) (*model.AdvisorSession, error) {
	return s.Conversation.Advance(studentID, Event{Kind: EventStart})
}

func (s *AdvisorService) Reset(studentID uint) (*model.AdvisorSession, error) {
	return s.Conversation.Advance(studentID, Event{Kind: EventReset})
}

// SubmitRegistration confirms who the student is and writes the verified
// details onto the student record once the transition has been accepted.
func (s *AdvisorService) SubmitRegistration(studentID uint, draft *model.RegistrationDraft) (*model.AdvisorSession, error) {
	session, err := s.Conversation.Advance(studentID, Event{Kind: EventRegister, Registration: draft})
	if err != nil {
		return session, err
	}

	student, err := s.StudentRepo.FindByID(studentID)
	if err != nil {
		return session, err
	}
	student.EntryYear = draft.EntryYear
	student.CurrentSemester = draft.CurrentSemester
	if draft.Major != "" {
		student.Major = draft.Major
	}
	if err := s.StudentRepo.Update(student); err != nil {
		return session, err
	}
	return session, nil
}

// SubmitGrades reconciles the raw entries. The session advances only when
// every entry resolved cleanly; otherwise the per-entry outcomes go back
// to the student and nothing is staged.
func (s *AdvisorService) SubmitGrades(studentID uint, entries []model.ParsedGradeEntry) ([]model.ReconcileOutcome, *model.AdvisorSession, error) {
	student, err := s.StudentRepo.FindByID(studentID)
	if err != nil {
		return nil, nil, err
	}
	snap, err := s.Curriculum.SnapshotFor(student.EntryYear)
	if err != nil {
		return nil, nil, err
	}

	outcomes := s.Reconcile.Reconcile(entries, snap)

	var pending []model.PendingGrade
	clean := true
	for _, out := range outcomes {
		if out.Kind != model.ReconcileConfirmed {
			clean = false
			continue
		}
		pending = append(pending, *out.Confirmed)
	}
	if !clean || len(pending) == 0 {
		session, sessErr := s.Conversation.Current(studentID)
		return outcomes, session, sessErr
	}

	session, err := s.Conversation.Advance(studentID, Event{Kind: EventSubmitGrades, PendingGrades: pending})
	return outcomes, session, err
}

func (s *AdvisorService) ConfirmGrades(studentID uint) (*model.AdvisorSession, error) {
	return s.Conversation.Advance(studentID, Event{Kind: EventConfirmGrades})
}

func (s *AdvisorService) RejectGrades(studentID uint) (*model.AdvisorSession, error) {
	return s.Conversation.Advance(studentID, Event{Kind: EventRejectGrades})
}

// SubmitPreferences runs the full pipeline and stages the resulting plan
// for confirmation. Generation failures degrade to the deterministic
// fallback rather than failing the request.
func (s *AdvisorService) SubmitPreferences(ctx context.Context, studentID uint, prefs *model.Preferences) (*model.RecommendationPlan, *model.AdvisorSession, error) {
	unlock, err := s.acquireLock(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	rc, err := s.AssembleContext(studentID, prefs)
	if err != nil {
		return nil, nil, err
	}

	plan := s.generate(ctx, rc)

	session, err := s.Conversation.Advance(studentID, Event{
		Kind:        EventSubmitPrefs,
		Preferences: prefs,
		Plan:        plan,
	})
	if err != nil {
		return nil, session, err
	}

	s.cachePlan(ctx, studentID, plan)
	return plan, session, nil
}

func (s *AdvisorService) generate(ctx context.Context, rc *model.RecommendationContext) *model.RecommendationPlan {
	plan, err := s.Generator.Recommend(ctx, rc)
	if err != nil {
		var capErr *util.CapabilityError
		if !errors.As(err, &capErr) {
			logger.Log.Error("unexpected generation error", zap.Error(err))
		}
		monitoring.RecommendationCounter.WithLabelValues("fallback").Inc()
		return s.Context.FallbackRecommend(rc)
	}
	monitoring.RecommendationCounter.WithLabelValues("llm").Inc()
	return plan
}

func (s *AdvisorService) ConfirmRecommendation(studentID uint) (*model.RecommendationPlan, *model.AdvisorSession, error) {
	current, err := s.Conversation.Current(studentID)
	if err != nil {
		return nil, nil, err
	}
	payload, err := current.DecodePayload()
	if err != nil {
		return nil, nil, err
	}
	if payload.Recommendation == nil {
		return nil, current, util.ErrRecommendationNotPending
	}

	session, err := s.Conversation.Advance(studentID, Event{Kind: EventConfirmRec})
	if err != nil {
		return nil, session, err
	}
	return payload.Recommendation, session, nil
}

// AssembleContext runs profile aggregation through context assembly for
// the student's coming semester.
func (s *AdvisorService) AssembleContext(studentID uint, prefs *model.Preferences) (*model.RecommendationContext, error) {
	student, err := s.StudentRepo.FindByID(studentID)
	if err != nil {
		return nil, err
	}
	snap, err := s.Curriculum.SnapshotFor(student.EntryYear)
	if err != nil {
		return nil, err
	}
	profile, err := s.Profile.ProfileFor(student, snap)
	if err != nil {
		return nil, err
	}

	eligibility := s.Eligibility.CheckAll(profile, snap, CheckOptions{
		TargetSemester: student.CurrentSemester,
		Offered:        snap.OfferedIn(student.CurrentSemester),
	})

	finalSemester := prefs != nil && prefs.FinalSemester
	standing := s.Standing.Evaluate(profile, finalSemester)
	if err := s.Standing.CheckRequestedCredits(prefs, standing); err != nil {
		return nil, err
	}
	specialization := s.Specialization.TrackProgress(profile, snap)
	graduation := s.Profile.GraduationProgress(profile)

	return s.Context.Assemble(AssembleInput{
		Student:        student,
		Profile:        profile,
		Eligibility:    eligibility,
		Standing:       standing,
		Graduation:     graduation,
		Specialization: specialization,
		Preferences:    prefs,
		Snapshot:       snap,
	}), nil
}

// Ask answers a free-form question against the assembled context.
func (s *AdvisorService) Ask(ctx context.Context, studentID uint, question string) (string, error) {
	rc, err := s.AssembleContext(studentID, nil)
	if err != nil {
		return "", err
	}
	return s.Generator.Chat(ctx, question, rc)
}

// CachedRecommendation returns the last plan served to the student, if it
// is still fresh.
func (s *AdvisorService) CachedRecommendation(ctx context.Context, studentID uint) (*model.RecommendationPlan, error) {
	raw, err := s.rdb.Get(ctx, recKey(studentID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var plan model.RecommendationPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *AdvisorService) cachePlan(ctx context.Context, studentID uint, plan *model.RecommendationPlan) {
	raw, err := json.Marshal(plan)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, recKey(studentID), raw, s.cfg.RecommendationTTL).Err(); err != nil {
		logger.Log.Warn("failed to cache recommendation", zap.Error(err))
	}
}

// acquireLock sheds duplicate concurrent pipeline runs for one student.
// The session seq still decides correctness; this only saves the work.
func (s *AdvisorService) acquireLock(ctx context.Context, studentID uint) (func(), error) {
	key := fmt.Sprintf("advisor:lock:%d", studentID)
	ok, err := s.rdb.SetNX(ctx, key, 1, 15*time.Second).Result()
	if err != nil {
		// Redis being down must not take advising down with it.
		logger.Log.Warn("advisor lock unavailable", zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, util.ErrConcurrentModification
	}
	return func() { s.rdb.Del(context.Background(), key) }, nil
}

func recKey(studentID uint) string {
	return fmt.Sprintf("advisor:rec:%d", studentID)
}
