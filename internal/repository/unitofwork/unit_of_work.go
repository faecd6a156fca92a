package unitofwork

import (
	"context"

	"exam-grading-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SubmissionRepository() contract.SubmissionRepository
	GuideRepository() contract.GuideRepository
	GradingSessionRepository() contract.GradingSessionRepository
	MappingRepository() contract.MappingRepository
	ResultRepository() contract.ResultRepository
	ProgressRepository() contract.ProgressRepository
	NotificationRepository() contract.NotificationRepository
}
