package entity

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the pipeline stage the session currently occupies.
// Terminal values are StatusCompleted and StatusFailed.
type SessionStatus string

const (
	StatusNotStarted    SessionStatus = "not_started"
	StatusTextRetrieval SessionStatus = "text_retrieval"
	StatusMapping       SessionStatus = "mapping"
	StatusGrading       SessionStatus = "grading"
	StatusSaving        SessionStatus = "saving"
	StatusCompleted     SessionStatus = "completed"
	StatusFailed        SessionStatus = "failed"
)

// Per-stage sub-status values kept in GradingSession.Steps.
const (
	StepPending    = "pending"
	StepInProgress = "in_progress"
	StepCompleted  = "completed"
	StepFailed     = "failed"
	StepSkipped    = "skipped"
)

// StageNames lists the pipeline stages in execution order.
var StageNames = []string{"text_retrieval", "mapping", "grading", "saving"}

// NewStepMap returns a fresh sub-status map with every stage pending.
func NewStepMap() map[string]string {
	steps := make(map[string]string, len(StageNames))
	for _, name := range StageNames {
		steps[name] = StepPending
	}
	return steps
}

// GradingSession is one run of the grading workflow for a
// (submission, guide) pair. The pair is the idempotency key: re-invoking
// with an existing completed or in-progress session returns that session.
type GradingSession struct {
	Id                uuid.UUID
	SubmissionId      uuid.UUID
	GuideId           uuid.UUID
	UserId            uuid.UUID
	Status            SessionStatus
	Steps             map[string]string
	QuestionsMapped   int
	QuestionsGraded   int
	QuestionsSelected int
	MaxQuestionsLimit *int
	ErrorMessage      string
	StartedAt         time.Time
	CompletedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

// Terminal reports whether the session can no longer change.
func (s *GradingSession) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// InProgress reports whether a pipeline run currently owns this session.
func (s *GradingSession) InProgress() bool {
	switch s.Status {
	case StatusTextRetrieval, StatusMapping, StatusGrading, StatusSaving:
		return true
	}
	return false
}

// MappingRecord associates a guide question with the student's extracted
// answer text. Immutable once selected for persistence.
type MappingRecord struct {
	Id           uuid.UUID
	SessionId    uuid.UUID
	QuestionId   uuid.UUID
	QuestionText string
	AnswerText   string
	MaxScore     float64
	Confidence   float64
}

// GradingMethod tags how a score was produced so degraded output is never
// mistaken for model output.
type GradingMethod string

const (
	GradingMethodModel     GradingMethod = "model"
	GradingMethodHeuristic GradingMethod = "heuristic"
	GradingMethodFallback  GradingMethod = "fallback"
)

// ResultRecord is a persisted grading outcome keyed by the mapping it
// scored.
type ResultRecord struct {
	Id                   uuid.UUID
	SessionId            uuid.UUID
	MappingId            uuid.UUID
	Score                float64
	Percentage           float64
	Feedback             string
	Confidence           float64
	Method               GradingMethod
	RequiresManualReview bool
	CreatedAt            time.Time
}

// GradedMapping is a MappingRecord plus its grading outcome. Ephemeral
// until the selection stage commits a subset.
type GradedMapping struct {
	Mapping              MappingRecord
	Score                float64
	Percentage           float64
	Feedback             string
	Confidence           float64
	Method               GradingMethod
	RequiresManualReview bool
}
