package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/evalhub/evalhub-api/internal/config"
	"github.com/evalhub/evalhub-api/internal/dto"
	"github.com/evalhub/evalhub-api/internal/handler"
	"github.com/evalhub/evalhub-api/internal/models"
	"github.com/evalhub/evalhub-api/internal/repository"
	"github.com/evalhub/evalhub-api/internal/router"
	"github.com/evalhub/evalhub-api/internal/service"
)

func setupSubmissionApp(t *testing.T) (*fiber.App, *gorm.DB) {
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
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	assessmentRepo := repository.NewAssessmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	submissions := service.NewSubmissionService(submissionRepo, assessmentRepo, validate, logger)
	evaluations := service.NewEvaluationService(submissionRepo, validate, nil, nil, nil, logger)
	challenges := service.NewChallengeService(submissionRepo, validate, nil, nil, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		SubmissionHandler:   handler.NewSubmissionHandler(submissions, challenges, logger),
		AdminGradingHandler: handler.NewAdminGradingHandler(evaluations, challenges, logger),
		JWTMiddleware:       testJWTStub(),
	})

	return app, db
}

func seedSubmissionFixtures(t *testing.T, db *gorm.DB) (models.User, models.User, models.Assessment) {
	t.Helper()

	student := models.User{Name: "Student", Email: "student-" + t.Name() + "@example.com", PasswordHash: "x", Role: models.RoleStudent}
	require.NoError(t, db.Create(&student).Error)
	admin := models.User{Name: "Admin", Email: "admin-" + t.Name() + "@example.com", PasswordHash: "x", Role: models.RoleAdmin}
	require.NoError(t, db.Create(&admin).Error)

	assessment := models.Assessment{
		Title:     "Midterm",
		IsActive:  true,
		TimeLimit: 60,
		CreatedBy: admin.ID,
		Questions: []models.Question{
			{Position: 0, Text: "Explain your approach", Type: models.QuestionTypeDescriptive, MaxPoints: 100},
		},
	}
	require.NoError(t, db.Create(&assessment).Error)

	return student, admin, assessment
}

func doJSON(t *testing.T, app *fiber.App, method, path string, user models.User, payload interface{}) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Test-User", strconv.FormatUint(uint64(user.ID), 10))
	req.Header.Set("X-Test-Role", user.Role)

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeSubmissionEnvelope(t *testing.T, resp *http.Response) (dto.SubmissionResponse, string) {
	t.Helper()

	var envelope struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionResponse `json:"data"`
		Message string                 `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NoError(t, resp.Body.Close())
	return envelope.Data, envelope.Message
}

func TestSubmissionLifecycleOverHTTP(t *testing.T) {
	app, db := setupSubmissionApp(t)
	student, admin, assessment := seedSubmissionFixtures(t, db)

	createResp := doJSON(t, app, "POST", "/api/v1/submissions", student, map[string]interface{}{
		"assessment_id": assessment.ID,
		"content":       "my answer",
	})
	require.Equal(t, fiber.StatusCreated, createResp.StatusCode)
	created, message := decodeSubmissionEnvelope(t, createResp)
	require.Equal(t, "submission created", message)
	require.NotZero(t, created.ID)
	require.Equal(t, "pending", created.EvaluationStatus)

	// One submission per student per assessment.
	dupResp := doJSON(t, app, "POST", "/api/v1/submissions", student, map[string]interface{}{
		"assessment_id": assessment.ID,
		"content":       "second try",
	})
	require.Equal(t, fiber.StatusConflict, dupResp.StatusCode)
	require.NoError(t, dupResp.Body.Close())

	// A grade has to exist before a challenge can be filed.
	earlyChallenge := doJSON(t, app, "POST", fmt.Sprintf("/api/v1/submissions/%d/challenge", created.ID), student, map[string]interface{}{
		"reason": "too low",
	})
	require.Equal(t, fiber.StatusConflict, earlyChallenge.StatusCode)
	require.NoError(t, earlyChallenge.Body.Close())

	evaluateResp := doJSON(t, app, "POST", fmt.Sprintf("/api/admin/submissions/%d/evaluate", created.ID), admin, map[string]interface{}{
		"grade":    70,
		"feedback": "solid work",
	})
	require.Equal(t, fiber.StatusOK, evaluateResp.StatusCode)
	evaluated, _ := decodeSubmissionEnvelope(t, evaluateResp)
	require.NotNil(t, evaluated.Grade)
	require.Equal(t, 70, *evaluated.Grade)
	require.Equal(t, "evaluated", evaluated.EvaluationStatus)

	challengeResp := doJSON(t, app, "POST", fmt.Sprintf("/api/v1/submissions/%d/challenge", created.ID), student, map[string]interface{}{
		"reason": "rubric was applied inconsistently",
	})
	require.Equal(t, fiber.StatusOK, challengeResp.StatusCode)
	challenged, _ := decodeSubmissionEnvelope(t, challengeResp)
	require.NotNil(t, challenged.Challenge)
	require.Equal(t, "pending", challenged.Challenge.Status)

	respondResp := doJSON(t, app, "PATCH", fmt.Sprintf("/api/admin/submissions/%d/challenge", created.ID), admin, map[string]interface{}{
		"response": "grade stands after a second read",
		"status":   "rejected",
	})
	require.Equal(t, fiber.StatusOK, respondResp.StatusCode)
	resolved, _ := decodeSubmissionEnvelope(t, respondResp)
	require.NotNil(t, resolved.Challenge)
	require.Equal(t, "rejected", resolved.Challenge.Status)
	require.NotNil(t, resolved.Challenge.ResolvedDate)
	require.Equal(t, 70, *resolved.Grade)
}

func TestSubmissionListRejectsMalformedFilters(t *testing.T) {
	app, db := setupSubmissionApp(t)
	student, _, _ := seedSubmissionFixtures(t, db)

	for _, path := range []string{
		"/api/v1/submissions?assessment_id=abc",
		"/api/v1/submissions?user_id=abc",
	} {
		resp := doJSON(t, app, "GET", path, student, nil)
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode, path)
		require.NoError(t, resp.Body.Close())
	}

	resp := doJSON(t, app, "GET", "/api/v1/submissions?assessment_id=1", student, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())
}

func TestSubmissionAdminRoutesRejectStudents(t *testing.T) {
	app, db := setupSubmissionApp(t)
	student, admin, assessment := seedSubmissionFixtures(t, db)

	createResp := doJSON(t, app, "POST", "/api/v1/submissions", student, map[string]interface{}{
		"assessment_id": assessment.ID,
		"content":       "my answer",
	})
	require.Equal(t, fiber.StatusCreated, createResp.StatusCode)
	created, _ := decodeSubmissionEnvelope(t, createResp)

	resp := doJSON(t, app, "POST", fmt.Sprintf("/api/admin/submissions/%d/evaluate", created.ID), student, map[string]interface{}{
		"grade":    100,
		"feedback": "self service",
	})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	// Students cannot read somebody else's submission either.
	stranger := models.User{Name: "Other", Email: "other-" + t.Name() + "@example.com", PasswordHash: "x", Role: models.RoleStudent}
	require.NoError(t, db.Create(&stranger).Error)

	getResp := doJSON(t, app, "GET", fmt.Sprintf("/api/v1/submissions/%d", created.ID), stranger, nil)
	require.Equal(t, fiber.StatusForbidden, getResp.StatusCode)
	require.NoError(t, getResp.Body.Close())

	adminGet := doJSON(t, app, "GET", fmt.Sprintf("/api/v1/submissions/%d", created.ID), admin, nil)
	require.Equal(t, fiber.StatusOK, adminGet.StatusCode)
	require.NoError(t, adminGet.Body.Close())
}
