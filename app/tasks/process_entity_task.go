package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/marove/grabbit/app/content"
	"github.com/marove/grabbit/app/database"
	"github.com/marove/grabbit/app/download"
	"github.com/marove/grabbit/app/entity"
	"github.com/marove/grabbit/app/extract"
	"github.com/marove/grabbit/app/status"
)

// ProcessEntityTask runs one download pass for one entity: resume pending
// items, fetch the new submission batch, extract, download the accepted items
// concurrently, then finalize the pass state.
type ProcessEntityTask struct {
	Task
	Entity           *entity.Entity
	source           SubmissionSource
	dispatcher       *extract.Dispatcher
	executor         *download.Executor
	entityRepo       database.EntityRepository
	contentRepo      database.ContentRepository
	queue            *status.Queue
	downloadWorkers  int
	saveUndownloaded bool
}

func NewProcessEntityTask(e *entity.Entity, source SubmissionSource, dispatcher *extract.Dispatcher,
	executor *download.Executor, entityRepo database.EntityRepository,
	contentRepo database.ContentRepository, queue *status.Queue,
	downloadWorkers int, saveUndownloaded bool) *ProcessEntityTask {
	return &ProcessEntityTask{
		Task:             NewTask(TaskTypeProcessEntity, e.Name),
		Entity:           e,
		source:           source,
		dispatcher:       dispatcher,
		executor:         executor,
		entityRepo:       entityRepo,
		contentRepo:      contentRepo,
		queue:            queue,
		downloadWorkers:  downloadWorkers,
		saveUndownloaded: saveUndownloaded,
	}
}

func (t *ProcessEntityTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	e := t.Entity

	resumed := e.LoadUnfinishedDownloads()

	submissions, err := t.source.Fetch(ctx, e)
	if err != nil {
		return fmt.Errorf("failed to fetch submissions: %w", err)
	}

	sum := t.dispatcher.Run(ctx, e, submissions)

	for _, message := range e.FailedExtracts() {
		t.queue.Put(message)
	}

	downloaded, failed := t.downloadAll(ctx, e.Content())

	if err := t.finalize(e); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", "ProcessEntity",
		"entity", e.Name,
		"duration", t.GetDuration(),
		"submissions", sum.Submissions,
		"resumed", resumed,
		"extracted", sum.Extracted,
		"accepted", sum.Accepted,
		"extract_failures", sum.Failed,
		"downloaded", downloaded,
		"download_failures", failed)

	return nil
}

// downloadAll transfers the accepted items through a bounded worker group.
// Items are started in the order received; each item's failure is already
// reported by the executor, so here it only affects the counts.
func (t *ProcessEntityTask) downloadAll(ctx context.Context, items []*content.Item) (downloaded, failed int) {
	sem := make(chan struct{}, t.downloadWorkers)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, item := range items {
		if item.Downloaded {
			continue
		}
		select {
		case <-ctx.Done():
			// Stop starting new items; in-flight ones run to completion.
			wg.Wait()
			return downloaded, failed
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(it *content.Item) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := t.executor.Run(ctx, it); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			if it.URL != "" {
				if err := t.contentRepo.MarkDownloaded(t.Entity.Name, it.URL); err != nil {
					slog.Error("Failed to record download", "entity", t.Entity.Name,
						"url", it.URL, "error", err)
				}
			}
			mu.Lock()
			downloaded++
			mu.Unlock()
		}(item)
	}

	wg.Wait()
	return downloaded, failed
}

// finalize persists the watermark, snapshots whatever never finished, and
// clears the in-memory pass state.
func (t *ProcessEntityTask) finalize(e *entity.Entity) error {
	if err := t.entityRepo.UpdateDateLimit(e.Name, e.Watermark(), e.CustomDateLimit()); err != nil {
		return fmt.Errorf("failed to persist watermark: %w", err)
	}

	e.ClearDownloadSessionData(t.saveUndownloaded)

	if err := t.contentRepo.ClearUnfinished(e.Name); err != nil {
		return fmt.Errorf("failed to clear resume snapshot: %w", err)
	}

	saved := e.SavedContent()
	if len(saved) == 0 {
		return nil
	}

	items := make([]database.UnfinishedItem, 0, len(saved))
	for url, s := range saved {
		items = append(items, database.UnfinishedItem{
			EntityName:   e.Name,
			URL:          url,
			Text:         s.Text,
			PostTitle:    s.PostTitle,
			Board:        s.Board,
			SubmissionID: s.SubmissionID,
			SeqIndex:     s.SeqIndex,
			Extension:    s.Extension,
			SaveRoot:     s.SaveRoot,
			Grouping:     string(s.Grouping),
			CreatedUTC:   s.CreatedUTC,
		})
	}
	if err := t.contentRepo.SaveUnfinished(items); err != nil {
		return fmt.Errorf("failed to persist resume snapshot: %w", err)
	}
	return nil
}
