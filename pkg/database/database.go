package database

import (
	"coursewise_backend/internal/config"
	"coursewise_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the connection and, when migrate is set, brings the schema
// up to date and seeds a starter curriculum. Release deployments skip
// migration unless it is forced on the command line.
func InitDB(cfg *config.DatabaseConfig, migrate bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if migrate {
		err = db.AutoMigrate(
			&model.Student{},
			&model.Course{},
			&model.CoursePrerequisite{},
			&model.CourseOffering{},
			&model.CurriculumRegulation{},
			&model.ElectiveGroup{},
			&model.GroupCourse{},
			&model.GradeRecord{},
			&model.AdvisorSession{},
		)

		if err != nil {
			return nil, err
		}

		log.Println("Database migration completed")

		seedCurriculum(db)
	}

	return db, nil
}

// seedCurriculum inserts a minimal first-year catalog so a fresh install
// can answer eligibility queries before a full import.
func seedCurriculum(db *gorm.DB) {
	var count int64
	db.Model(&model.Course{}).Count(&count)
	if count > 0 {
		return
	}

	sem := func(n int) *int { return &n }
	courses := []model.Course{
		{Code: "CS101", EntryYear: 1403, Name: "Fundamentals of Programming", TheoreticalCredits: 3, PracticalCredits: 1, Type: model.CourseFoundation, RecommendedSemester: sem(1), IsMandatory: true},
		{Code: "MATH101", EntryYear: 1403, Name: "Calculus I", TheoreticalCredits: 3, Type: model.CourseGeneral, RecommendedSemester: sem(1), IsMandatory: true},
		{Code: "CS102", EntryYear: 1403, Name: "Advanced Programming", TheoreticalCredits: 3, PracticalCredits: 1, Type: model.CourseFoundation, RecommendedSemester: sem(2), IsMandatory: true},
		{Code: "CS201", EntryYear: 1403, Name: "Data Structures", TheoreticalCredits: 3, Type: model.CourseCore, RecommendedSemester: sem(3), IsMandatory: true},
		{Code: "CS202", EntryYear: 1403, Name: "Algorithm Design", TheoreticalCredits: 3, Type: model.CourseCore, RecommendedSemester: sem(4), IsMandatory: true},
	}
	for i := range courses {
		db.Create(&courses[i])
	}

	prereqs := []model.CoursePrerequisite{
		{CourseCode: "CS102", RequiredCode: "CS101", EntryYear: 1403, MinimumGrade: 10},
		{CourseCode: "CS201", RequiredCode: "CS102", EntryYear: 1403, MinimumGrade: 10},
		{CourseCode: "CS202", RequiredCode: "CS201", EntryYear: 1403, MinimumGrade: 10},
	}
	for i := range prereqs {
		db.Create(&prereqs[i])
	}

	regulation := model.CurriculumRegulation{
		EntryYear: 1403,
		Title:     "Credit load",
		Body:      "Students take 14 to 24 credits per term depending on standing; a GPA below 12 places the student on probation at the base credit cap.",
	}
	db.Create(&regulation)
}
