package repository

import (
	"coursewise_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) ListEntryYears() ([]int, error) {
	var years []int
	err := r.DB.Model(&model.Course{}).
		Distinct("entry_year").
		Order("entry_year").
		Pluck("entry_year", &years).Error
	return years, err
}

func (r *CourseRepository) ListByEntryYear(entryYear int) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Where("entry_year = ?", entryYear).
		Order("code").
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) ListPrerequisites(entryYear int) ([]model.CoursePrerequisite, error) {
	var edges []model.CoursePrerequisite
	err := r.DB.Where("entry_year = ?", entryYear).
		Order("course_code, required_code").
		Find(&edges).Error
	return edges, err
}

func (r *CourseRepository) ListOfferings(entryYear int) ([]model.CourseOffering, error) {
	var offerings []model.CourseOffering
	err := r.DB.Where("entry_year = ?", entryYear).
		Order("semester, course_code").
		Find(&offerings).Error
	return offerings, err
}

func (r *CourseRepository) ListRegulations(entryYear int) ([]model.CurriculumRegulation, error) {
	var regulations []model.CurriculumRegulation
	err := r.DB.Where("entry_year = ?", entryYear).
		Order("id").
		Find(&regulations).Error
	return regulations, err
}
