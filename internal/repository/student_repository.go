package repository

import (
	"coursewise_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type StudentRepository struct {
	DB *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{DB: db}
}

func (r *StudentRepository) Create(student *model.Student) error {
	return r.DB.Create(student).Error
}

func (r *StudentRepository) FindByID(id uint) (*model.Student, error) {
	var student model.Student
	err := r.DB.First(&student, id).Error
	return &student, err
}

func (r *StudentRepository) FindByStudentNumber(number string) (*model.Student, error) {
	var student model.Student
	err := r.DB.Where("student_number = ?", number).First(&student).Error
	return &student, err
}

func (r *StudentRepository) Update(student *model.Student) error {
	return r.DB.Save(student).Error
}

func (r *StudentRepository) UpdateLastSeen(studentID uint) error {
	return r.DB.Model(&model.Student{}).
		Where("id = ?", studentID).
		Update("last_seen", time.Now()).
		Error
}
