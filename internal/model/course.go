package model

type CourseType string

const (
	CourseFoundation  CourseType = "foundation"
	CourseCore        CourseType = "core"
	CourseSpecialized CourseType = "specialized"
	CourseGeneral     CourseType = "general"
)

// Course is one versioned catalog entry. The same code may exist under
// different entry years when the curriculum changes.
// swagger:model Course
type Course struct {
	BaseModel
	Code                string     `gorm:"size:20;not null;uniqueIndex:idx_course_code_year" json:"code"`
	EntryYear           int        `gorm:"not null;uniqueIndex:idx_course_code_year" json:"entryYear"`
	Name                string     `gorm:"size:200;not null" json:"name"`
	TheoreticalCredits  int        `gorm:"default:0" json:"theoreticalCredits"`
	PracticalCredits    int        `gorm:"default:0" json:"practicalCredits"`
	Type                CourseType `gorm:"type:enum('foundation','core','specialized','general');default:'core'" json:"type"`
	RecommendedSemester *int       `json:"recommendedSemester,omitempty"`
	IsMandatory         bool       `gorm:"default:true" json:"isMandatory"`
	Description         string     `gorm:"type:text" json:"description,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

func (c *Course) TotalCredits() int {
	return c.TheoreticalCredits + c.PracticalCredits
}

// CoursePrerequisite is one edge of the dependency graph. A corequisite
// edge may be satisfied by concurrent enrollment; a plain prerequisite
// must be passed in a strictly earlier semester with at least MinimumGrade.
// swagger:model CoursePrerequisite
type CoursePrerequisite struct {
	BaseModel
	CourseCode    string  `gorm:"size:20;not null;index:idx_prereq_course" json:"courseCode"`
	RequiredCode  string  `gorm:"size:20;not null" json:"requiredCode"`
	EntryYear     int     `gorm:"not null;index:idx_prereq_course" json:"entryYear"`
	IsCorequisite bool    `gorm:"default:false" json:"isCorequisite"`
	MinimumGrade  float64 `gorm:"default:10" json:"minimumGrade"`
}

func (CoursePrerequisite) TableName() string {
	return "course_prerequisites"
}

// CourseOffering marks a course as offered in a given semester number.
// swagger:model CourseOffering
type CourseOffering struct {
	BaseModel
	CourseCode string `gorm:"size:20;not null;index" json:"courseCode"`
	EntryYear  int    `gorm:"not null" json:"entryYear"`
	Semester   int    `gorm:"not null" json:"semester"`
	Capacity   int    `gorm:"default:0" json:"capacity"`
}

func (CourseOffering) TableName() string {
	return "course_offerings"
}

// CurriculumRegulation is free-text regulation material attached to a
// curriculum version. The text rides along in the recommendation context
// and is the first prose truncation drops.
// swagger:model CurriculumRegulation
type CurriculumRegulation struct {
	BaseModel
	EntryYear int    `gorm:"not null;index" json:"entryYear"`
	Title     string `gorm:"size:200" json:"title"`
	Body      string `gorm:"type:text" json:"body"`
}

func (CurriculumRegulation) TableName() string {
	return "curriculum_regulations"
}
