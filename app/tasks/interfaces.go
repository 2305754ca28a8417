package tasks

import (
	"context"

	"github.com/marove/grabbit/app/content"
	"github.com/marove/grabbit/app/entity"
)

// TaskSchedulerInterface is what the main application and the API layer use
// to manage background task processing.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// SubmissionSource supplies a batch of submissions for one entity. The reddit
// listing client implements it; tests substitute a fake.
type SubmissionSource interface {
	Fetch(ctx context.Context, e *entity.Entity) ([]content.Submission, error)
}
