package dto

import (
	"time"

	"github.com/google/uuid"
)

type ProcessGradingRequest struct {
	SubmissionId uuid.UUID `json:"submission_id" validate:"required"`
	GuideId      uuid.UUID `json:"guide_id" validate:"required"`
	MaxQuestions *int      `json:"max_questions" validate:"omitempty,gt=0"`
	Async        bool      `json:"async"`
}

// PublishGradingJobMessage is the payload queued on the internal bus
// when a grading run is requested asynchronously.
type PublishGradingJobMessage struct {
	SessionId    uuid.UUID `json:"session_id"`
	SubmissionId uuid.UUID `json:"submission_id"`
	GuideId      uuid.UUID `json:"guide_id"`
	UserId       uuid.UUID `json:"user_id"`
	MaxQuestions *int      `json:"max_questions,omitempty"`
}

type ProcessGradingResponse struct {
	Success           bool              `json:"success"`
	SessionId         uuid.UUID         `json:"session_id"`
	Status            string            `json:"status"`
	Steps             map[string]string `json:"steps"`
	QuestionsMapped   int               `json:"questions_mapped"`
	QuestionsGraded   int               `json:"questions_graded"`
	QuestionsSelected int               `json:"questions_selected"`
	MappingsSaved     int               `json:"mappings_saved"`
	ResultsSaved      int               `json:"results_saved"`
	ProcessingTimeMs  int64             `json:"processing_time_ms"`
	ErrorMessage      string            `json:"error_message,omitempty"`
}

type SessionStatusResponse struct {
	SessionId         uuid.UUID         `json:"session_id"`
	SubmissionId      uuid.UUID         `json:"submission_id"`
	GuideId           uuid.UUID         `json:"guide_id"`
	Status            string            `json:"status"`
	Steps             map[string]string `json:"steps"`
	QuestionsMapped   int               `json:"questions_mapped"`
	QuestionsGraded   int               `json:"questions_graded"`
	QuestionsSelected int               `json:"questions_selected"`
	ErrorMessage      string            `json:"error_message,omitempty"`
	StartedAt         time.Time         `json:"started_at"`
	CompletedAt       *time.Time        `json:"completed_at"`
}

type GradingResultItem struct {
	MappingId            uuid.UUID `json:"mapping_id"`
	QuestionText         string    `json:"question_text"`
	AnswerText           string    `json:"answer_text"`
	Score                float64   `json:"score"`
	MaxScore             float64   `json:"max_score"`
	Percentage           float64   `json:"percentage"`
	Feedback             string    `json:"feedback"`
	Confidence           float64   `json:"confidence"`
	Method               string    `json:"method"`
	RequiresManualReview bool      `json:"requires_manual_review"`
}

type SessionResultsResponse struct {
	SessionId uuid.UUID           `json:"session_id"`
	Status    string              `json:"status"`
	Results   []GradingResultItem `json:"results"`
}
