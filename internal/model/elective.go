package model

type RecommendationLevel string

const (
	StronglyRecommended RecommendationLevel = "strongly_recommended"
	Recommended         RecommendationLevel = "recommended"
	Optional            RecommendationLevel = "optional"
)

// ElectiveGroup is one specialization track. A track is satisfied once the
// student has earned RequiredCredits from its member courses.
// swagger:model ElectiveGroup
type ElectiveGroup struct {
	BaseModel
	Name            string `gorm:"size:100;not null" json:"name"`
	EntryYear       int    `gorm:"not null" json:"entryYear"`
	RequiredCredits int    `gorm:"not null" json:"requiredCredits"`
	MinSemester     int    `gorm:"default:5" json:"minSemester"`
	Priority        int    `gorm:"default:0" json:"priority"`
	Description     string `gorm:"type:text" json:"description,omitempty"`

	Courses []GroupCourse `gorm:"foreignKey:GroupID" json:"courses,omitempty"`
}

func (ElectiveGroup) TableName() string {
	return "elective_groups"
}

// swagger:model GroupCourse
type GroupCourse struct {
	BaseModel
	GroupID    uint                `gorm:"not null;index" json:"groupId"`
	CourseCode string              `gorm:"size:20;not null" json:"courseCode"`
	Priority   int                 `gorm:"default:0" json:"priority"`
	Level      RecommendationLevel `gorm:"type:enum('strongly_recommended','recommended','optional');default:'recommended'" json:"level"`
}

func (GroupCourse) TableName() string {
	return "group_courses"
}
