package api

import (
	"github.com/marove/grabbit/app/database"
	"github.com/marove/grabbit/app/entity"
	"github.com/marove/grabbit/app/status"
	"github.com/marove/grabbit/app/tasks"
)

// SchedulerInterface is the slice of the task scheduler the API layer needs:
// enqueueing arbitrary tasks plus triggering an immediate pass by name.
type SchedulerInterface interface {
	EnqueueTask(task tasks.TaskInterface) error
	EnqueuePass(name string) error
}

var _ SchedulerInterface = (*tasks.Scheduler)(nil)

type Handler struct {
	configCache *entity.ConfigCache
	registry    *entity.Registry
	entityRepo  database.EntityRepository
	contentRepo database.ContentRepository
	queue       *status.Queue
	scheduler   SchedulerInterface
}
