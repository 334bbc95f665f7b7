package model

import "time"

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

// Student is the authenticated user of the advisor. The student number is
// the institutional identity; entry year selects which curriculum version
// applies to them.
// swagger:model Student
type Student struct {
	BaseModel
	StudentNumber   string    `gorm:"size:20;unique;not null" json:"studentNumber"`
	Name            string    `gorm:"size:100;not null" json:"name"`
	Password        string    `gorm:"size:100;not null" json:"-"`
	Role            UserRole  `gorm:"type:enum('student','admin');default:'student'" json:"role"`
	EntryYear       int       `gorm:"not null" json:"entryYear"`
	CurrentSemester int       `gorm:"default:1" json:"currentSemester"`
	Major           string    `gorm:"size:100;default:'computer_science'" json:"major"`
	Disabled        bool      `gorm:"default:false" json:"disabled"`
	LastSeen        time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastSeen"`
}

func (Student) TableName() string {
	return "students"
}
