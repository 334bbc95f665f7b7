package repository

import (
	"coursewise_backend/internal/model"

	"gorm.io/gorm"
)

type GradeRepository struct {
	DB *gorm.DB
}

func NewGradeRepository(db *gorm.DB) *GradeRepository {
	return &GradeRepository{DB: db}
}

func (r *GradeRepository) ListByStudent(studentID uint) ([]model.GradeRecord, error) {
	var records []model.GradeRecord
	err := r.DB.Where("student_id = ?", studentID).
		Order("semester_taken, course_code, attempt_number").
		Find(&records).Error
	return records, err
}

func (r *GradeRepository) MaxAttempt(tx *gorm.DB, studentID uint, courseCode string) (int, error) {
	var max int
	err := tx.Model(&model.GradeRecord{}).
		Where("student_id = ? AND course_code = ?", studentID, courseCode).
		Select("COALESCE(MAX(attempt_number), 0)").
		Scan(&max).Error
	return max, err
}
