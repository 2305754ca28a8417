package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marove/grabbit/app/content"
	"github.com/marove/grabbit/app/database"
	"github.com/marove/grabbit/app/entity"
)

// SyncEntityTask registers a watch-list entry in the database, builds the
// live entity, and seeds its state from persisted history: the watermark, the
// dedup set, and any resume snapshot from an interrupted pass.
type SyncEntityTask struct {
	Task
	Config      *entity.Config
	saveRoot    string
	registry    *entity.Registry
	entityRepo  database.EntityRepository
	contentRepo database.ContentRepository
}

func NewSyncEntityTask(cfg *entity.Config, saveRoot string, registry *entity.Registry,
	entityRepo database.EntityRepository, contentRepo database.ContentRepository) *SyncEntityTask {
	return &SyncEntityTask{
		Task:        NewTask(TaskTypeSyncEntity, cfg.Name),
		Config:      cfg,
		saveRoot:    saveRoot,
		registry:    registry,
		entityRepo:  entityRepo,
		contentRepo: contentRepo,
	}
}

func (t *SyncEntityTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	e := entity.New(t.Config, t.saveRoot)

	err := t.entityRepo.UpsertEntity(database.Entity{
		Name:            e.Name,
		Kind:            string(e.Kind),
		SaveRoot:        e.SaveRoot,
		PostLimit:       e.PostLimit,
		AvoidDuplicates: e.AvoidDuplicates,
		DownloadImages:  e.DownloadImages,
		DownloadVideos:  e.DownloadVideos,
		Grouping:        string(e.Grouping),
		UserAdded:       e.UserAdded,
	})
	if err != nil {
		return fmt.Errorf("failed to register entity: %w", err)
	}

	stored, err := t.entityRepo.GetEntity(e.Name)
	if err != nil {
		return fmt.Errorf("failed to load entity state: %w", err)
	}
	if stored != nil {
		if stored.DateLimit != 0 {
			e.LoadWatermark(stored.DateLimit)
		}
		if stored.CustomDateLimit != nil {
			e.SetCustomDateLimit(*stored.CustomDateLimit)
		}
	}

	urls, err := t.contentRepo.GetDownloadedURLs(e.Name)
	if err != nil {
		return fmt.Errorf("failed to load download history: %w", err)
	}
	e.SeedDownloaded(urls)

	unfinished, err := t.contentRepo.LoadUnfinished(e.Name)
	if err != nil {
		return fmt.Errorf("failed to load resume snapshot: %w", err)
	}
	if len(unfinished) > 0 {
		saved := make(map[string]entity.SavedItem, len(unfinished))
		for _, item := range unfinished {
			saved[item.URL] = entity.SavedItem{
				Text:         item.Text,
				Owner:        item.EntityName,
				PostTitle:    item.PostTitle,
				Board:        item.Board,
				SubmissionID: item.SubmissionID,
				SeqIndex:     item.SeqIndex,
				Extension:    item.Extension,
				SaveRoot:     item.SaveRoot,
				Grouping:     content.Grouping(item.Grouping),
				CreatedUTC:   item.CreatedUTC,
			}
		}
		e.SeedSavedContent(saved)
	}

	t.registry.Add(e)

	slog.Info("Task completed",
		"type", "SyncEntity",
		"entity", e.Name,
		"kind", string(e.Kind),
		"duration", t.GetDuration(),
		"known_urls", len(urls),
		"resumable", len(unfinished))

	return nil
}
