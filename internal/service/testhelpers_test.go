package service

import (
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/evalhub/evalhub-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Assessment{},
		&models.Question{},
		&models.QuestionOption{},
		&models.Category{},
		&models.Submission{},
		&models.Note{},
		&models.Notification{},
		&models.ActivityLog{},
	))

	return db
}

func newTestValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func seedUser(t *testing.T, db *gorm.DB, role string) models.User {
	t.Helper()

	user := models.User{
		Name:         "Test " + role,
		Email:        fmt.Sprintf("%s-%s@example.com", role, t.Name()),
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedAssessment(t *testing.T, db *gorm.DB, active bool) models.Assessment {
	t.Helper()

	assessment := models.Assessment{
		Title:     "Midterm",
		IsActive:  active,
		TimeLimit: 60,
		Questions: []models.Question{
			{
				Position:     0,
				Text:         "Pick A and C",
				Type:         models.QuestionTypeMCQ,
				CategoryName: "logic",
				MaxPoints:    10,
				Options: []models.QuestionOption{
					{Text: "A", IsCorrect: true},
					{Text: "B"},
					{Text: "C", IsCorrect: true},
				},
			},
			{
				Position:  1,
				Text:      "Explain your reasoning",
				Type:      models.QuestionTypeDescriptive,
				MaxPoints: 20,
			},
		},
	}
	require.NoError(t, db.Create(&assessment).Error)
	return assessment
}
