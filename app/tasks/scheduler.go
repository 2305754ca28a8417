package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marove/grabbit/app/database"
	"github.com/marove/grabbit/app/download"
	"github.com/marove/grabbit/app/entity"
	"github.com/marove/grabbit/app/extract"
	"github.com/marove/grabbit/app/status"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Options carries the scheduler's knobs, read once at construction.
type Options struct {
	Interval         time.Duration
	WorkerCount      int
	DownloadWorkers  int
	SaveRoot         string
	SaveUndownloaded bool
}

type Scheduler struct {
	configCache *entity.ConfigCache
	registry    *entity.Registry
	source      SubmissionSource
	dispatcher  *extract.Dispatcher
	executor    *download.Executor
	entityRepo  database.EntityRepository
	contentRepo database.ContentRepository
	queue       *status.Queue
	opts        Options
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(configCache *entity.ConfigCache, registry *entity.Registry,
	source SubmissionSource, dispatcher *extract.Dispatcher, executor *download.Executor,
	entityRepo database.EntityRepository, contentRepo database.ContentRepository,
	queue *status.Queue, opts Options) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		configCache: configCache,
		registry:    registry,
		source:      source,
		dispatcher:  dispatcher,
		executor:    executor,
		entityRepo:  entityRepo,
		contentRepo: contentRepo,
		queue:       queue,
		opts:        opts,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.opts.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueuePassTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueuePass schedules an immediate download pass for one registered entity;
// the API layer uses it for manual runs.
func (s *Scheduler) EnqueuePass(name string) error {
	e, ok := s.registry.Get(name)
	if !ok {
		return fmt.Errorf("unknown entity: %s", name)
	}
	return s.EnqueueTask(s.newProcessTask(e))
}

func (s *Scheduler) newProcessTask(e *entity.Entity) *ProcessEntityTask {
	return NewProcessEntityTask(e, s.source, s.dispatcher, s.executor,
		s.entityRepo, s.contentRepo, s.queue, s.opts.DownloadWorkers, s.opts.SaveUndownloaded)
}

// enqueueStartupTasks syncs every watch-list entry into the database and
// registry. The first pass per enabled entity runs on the first tick, after
// the sync tasks have had a chance to complete.
func (s *Scheduler) enqueueStartupTasks() {
	configs := s.configCache.GetConfigs()
	if len(configs) == 0 {
		slog.Debug("No entity configurations found")
		return
	}

	slog.Debug("Syncing entity configurations", "count", len(configs))

	for _, cfg := range configs {
		saveRoot := cfg.SaveRoot
		if saveRoot == "" {
			saveRoot = s.opts.SaveRoot
		}
		syncTask := NewSyncEntityTask(cfg, saveRoot, s.registry, s.entityRepo, s.contentRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncEntityTask", "entity", cfg.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueuePassTasks() {
	configs := s.configCache.GetEnabledConfigs()
	if len(configs) == 0 {
		slog.Debug("No enabled entity configurations found")
		return
	}

	for _, cfg := range configs {
		e, ok := s.registry.Get(cfg.Name)
		if !ok {
			slog.Warn("Entity not registered yet, skipping", "entity", cfg.Name)
			continue
		}
		if err := s.EnqueueTask(s.newProcessTask(e)); err != nil {
			slog.Warn("Failed to enqueue ProcessEntityTask", "entity", cfg.Name, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 15*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID,
		"type", string(task.GetType()), "id", task.GetID(),
		"retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()),
			"id", task.GetID(), "retry_count", task.GetRetryCount(),
			"max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()),
		"entity", task.GetEntityName(), "retry_count", task.GetRetryCount(),
		"max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		time.Sleep(retryDelay)
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry",
				"type", string(task.GetType()), "id", task.GetID())
		default:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()),
					"id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}
