package utils

import (
	"fmt"

	"lms/backend/config"
	"lms/backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.LoginHistory{},
		&models.Course{},
		&models.Lesson{},
		&models.CourseEnrollment{},
		&models.Test{},
		&models.Question{},
		&models.QuestionOption{},
		&models.TestAttempt{},
		&models.Answer{},
		&models.LessonProgress{},
		&models.ActivityLog{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
