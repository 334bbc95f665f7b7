package repository

import (
	"coursewise_backend/internal/model"

	"gorm.io/gorm"
)

type ElectiveRepository struct {
	DB *gorm.DB
}

func NewElectiveRepository(db *gorm.DB) *ElectiveRepository {
	return &ElectiveRepository{DB: db}
}

func (r *ElectiveRepository) ListGroupsByEntryYear(entryYear int) ([]model.ElectiveGroup, error) {
	var groups []model.ElectiveGroup
	err := r.DB.Preload("Courses").
		Where("entry_year = ?", entryYear).
		Order("priority DESC, name").
		Find(&groups).Error
	return groups, err
}
