package repository

import (
	"coursewise_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB        *gorm.DB
	gradeRepo *GradeRepository
}

func NewSessionRepository(db *gorm.DB, gradeRepo *GradeRepository) *SessionRepository {
	return &SessionRepository{DB: db, gradeRepo: gradeRepo}
}

func (r *SessionRepository) FindByStudent(studentID uint) (*model.AdvisorSession, error) {
	var session model.AdvisorSession
	err := r.DB.Where("student_id = ?", studentID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Create(session *model.AdvisorSession) error {
	return r.DB.Create(session).Error
}

// UpdateConditional writes the session only if the stored sequence number
// still equals expectedSeq. Returns false when another writer got there
// first.
func (r *SessionRepository) UpdateConditional(session *model.AdvisorSession, expectedSeq uint64) (bool, error) {
	res := r.DB.Model(&model.AdvisorSession{}).
		Where("id = ? AND seq = ?", session.ID, expectedSeq).
		Updates(map[string]interface{}{
			"step":       session.Step,
			"seq":        session.Seq,
			"payload":    session.Payload,
			"expires_at": session.ExpiresAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CommitGrades persists confirmed grades and the accompanying session
// transition as one transaction. Attempt numbers are assigned inside the
// transaction so concurrent confirms of the same course cannot collide.
func (r *SessionRepository) CommitGrades(session *model.AdvisorSession, expectedSeq uint64, grades []model.PendingGrade) (bool, error) {
	applied := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.AdvisorSession{}).
			Where("id = ? AND seq = ?", session.ID, expectedSeq).
			Updates(map[string]interface{}{
				"step":       session.Step,
				"seq":        session.Seq,
				"payload":    session.Payload,
				"expires_at": session.ExpiresAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return nil
		}

		for _, g := range grades {
			max, err := r.gradeRepo.MaxAttempt(tx, session.StudentID, g.CourseCode)
			if err != nil {
				return err
			}
			record := model.GradeRecord{
				StudentID:     session.StudentID,
				CourseCode:    g.CourseCode,
				AttemptNumber: max + 1,
				Grade:         g.Grade,
				Status:        g.Status,
				SemesterTaken: g.SemesterTaken,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}

		applied = true
		return nil
	})
	return applied, err
}

// ResetExpired flips every expired session back to idle, discarding its
// payload. Bumping seq in the same UPDATE invalidates any in-flight
// conditional write against the old state.
func (r *SessionRepository) ResetExpired(now time.Time, ttl time.Duration) (int64, error) {
	res := r.DB.Model(&model.AdvisorSession{}).
		Where("expires_at < ? AND step <> ?", now, model.StepIdle).
		Updates(map[string]interface{}{
			"step":       model.StepIdle,
			"seq":        gorm.Expr("seq + 1"),
			"payload":    "",
			"expires_at": now.Add(ttl),
		})
	return res.RowsAffected, res.Error
}
