package model

type GradeStatus string

const (
	GradePassed    GradeStatus = "passed"
	GradeFailed    GradeStatus = "failed"
	GradeWithdrawn GradeStatus = "withdrawn"
)

// GradeRecord is one attempt at one course. Records are append-only:
// a retake becomes a new row with the next attempt number, never an
// update of an old one.
// swagger:model GradeRecord
type GradeRecord struct {
	BaseModel
	StudentID     uint        `gorm:"not null;uniqueIndex:idx_grade_attempt" json:"studentId"`
	CourseCode    string      `gorm:"size:20;not null;uniqueIndex:idx_grade_attempt" json:"courseCode"`
	AttemptNumber int         `gorm:"not null;uniqueIndex:idx_grade_attempt" json:"attemptNumber"`
	Grade         *float64    `json:"grade,omitempty"`
	Status        GradeStatus `gorm:"type:enum('passed','failed','withdrawn');not null" json:"status"`
	SemesterTaken int         `gorm:"not null" json:"semesterTaken"`
}

func (GradeRecord) TableName() string {
	return "grade_records"
}
