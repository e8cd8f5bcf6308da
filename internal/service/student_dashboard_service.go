package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/evalhub/evalhub-api/internal/dto"
	"github.com/evalhub/evalhub-api/internal/models"
	"github.com/evalhub/evalhub-api/internal/repository"
)

// StudentDashboardService produces aggregated dashboard metrics.
type StudentDashboardService interface {
	GetDashboard(ctx context.Context, userID uint) (dto.StudentDashboardResponse, error)
}

type studentDashboardService struct {
	assessments repository.AssessmentRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewStudentDashboardService builds the dashboard aggregator.
func NewStudentDashboardService(assessments repository.AssessmentRepository, submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StudentDashboardService {
	return &studentDashboardService{
		assessments: assessments,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "student_dashboard_service").Logger(),
	}
}

func (s *studentDashboardService) GetDashboard(ctx context.Context, userID uint) (dto.StudentDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:user:%d", userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("user_id", userID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	assessments, err := s.assessments.List(ctx, repository.AssessmentFilter{ActiveOnly: true})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	filter := repository.SubmissionFilter{UserID: &userID}
	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	response := s.buildResponse(assessments, submissions)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *studentDashboardService) buildResponse(assessments []models.Assessment, submissions []models.Submission) dto.StudentDashboardResponse {
	submissionByAssessment := map[uint]models.Submission{}
	for _, submission := range submissions {
		if _, exists := submissionByAssessment[submission.AssessmentID]; !exists {
			submissionByAssessment[submission.AssessmentID] = submission
		}
	}

	summary := dto.ProgressSummary{}
	pending := make([]dto.AssessmentProgress, 0)
	var gradeTotal float64
	var gradedCount int

	for _, assessment := range assessments {
		summary.TotalAssessments++
		submission, submitted := submissionByAssessment[assessment.ID]

		status := "pending"
		var submissionID *uint
		var grade *int

		if submitted {
			submissionID = &submission.ID
			summary.Submitted++

			if submission.IsEvaluated() {
				status = models.EvaluationStatusEvaluated
				summary.Evaluated++
				if submission.Grade != nil {
					gradeTotal += float64(*submission.Grade)
					gradedCount++
					grade = submission.Grade
				}
			} else {
				status = "submitted"
				summary.PendingReview++
			}

			if submission.ChallengeOpen() {
				summary.OpenChallenges++
			}
		}

		if status != models.EvaluationStatusEvaluated {
			pending = append(pending, dto.AssessmentProgress{
				AssessmentID: assessment.ID,
				Title:        assessment.Title,
				TimeLimit:    assessment.TimeLimit,
				Status:       status,
				SubmissionID: submissionID,
				Grade:        grade,
			})
		}
	}

	if gradedCount > 0 {
		summary.AverageGrade = gradeTotal / float64(gradedCount)
	}

	activities := make([]dto.SubmissionActivity, 0, minInt(5, len(submissions)))
	for idx, submission := range submissions {
		if idx >= 5 {
			break
		}
		activities = append(activities, dto.SubmissionActivity{
			SubmissionID:     submission.ID,
			AssessmentID:     submission.AssessmentID,
			AssessmentTitle:  submission.Assessment.Title,
			EvaluationStatus: submission.EvaluationStatus,
			Grade:            submission.Grade,
			ChallengeStatus:  submission.ChallengeStatus,
			SubmittedAt:      submission.CreatedAt,
		})
	}

	return dto.StudentDashboardResponse{
		Summary:           summary,
		Pending:           pending,
		RecentSubmissions: activities,
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
