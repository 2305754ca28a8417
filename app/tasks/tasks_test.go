package tasks

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marove/grabbit/app/content"
	"github.com/marove/grabbit/app/database"
	"github.com/marove/grabbit/app/download"
	"github.com/marove/grabbit/app/entity"
	"github.com/marove/grabbit/app/extract"
	"github.com/marove/grabbit/app/status"
)

type fakeSource struct {
	submissions []content.Submission
	err         error
}

func (f *fakeSource) Fetch(_ context.Context, _ *entity.Entity) ([]content.Submission, error) {
	return f.submissions, f.err
}

type fakeEntityRepo struct {
	mu         sync.Mutex
	entities   map[string]database.Entity
	dateLimits map[string]int64
	customs    map[string]*int64
}

func newFakeEntityRepo() *fakeEntityRepo {
	return &fakeEntityRepo{
		entities:   make(map[string]database.Entity),
		dateLimits: make(map[string]int64),
		customs:    make(map[string]*int64),
	}
}

func (r *fakeEntityRepo) UpsertEntity(e database.Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.entities[e.Name]; ok {
		e.DateLimit = stored.DateLimit
		e.CustomDateLimit = stored.CustomDateLimit
	}
	r.entities[e.Name] = e
	return nil
}

func (r *fakeEntityRepo) GetEntity(name string) (*database.Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[name]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *fakeEntityRepo) GetEntityCount() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entities), nil
}

func (r *fakeEntityRepo) UpdateDateLimit(name string, dateLimit int64, customDateLimit *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dateLimits[name] = dateLimit
	r.customs[name] = customDateLimit
	if e, ok := r.entities[name]; ok {
		e.DateLimit = dateLimit
		e.CustomDateLimit = customDateLimit
		r.entities[name] = e
	}
	return nil
}

func (r *fakeEntityRepo) DeleteEntity(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entities, name)
	return nil
}

type fakeContentRepo struct {
	mu         sync.Mutex
	downloaded map[string]map[string]struct{}
	unfinished map[string][]database.UnfinishedItem
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{
		downloaded: make(map[string]map[string]struct{}),
		unfinished: make(map[string][]database.UnfinishedItem),
	}
}

func (r *fakeContentRepo) MarkDownloaded(entityName, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.downloaded[entityName] == nil {
		r.downloaded[entityName] = make(map[string]struct{})
	}
	r.downloaded[entityName][url] = struct{}{}
	return nil
}

func (r *fakeContentRepo) GetDownloadedURLs(entityName string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	urls := make([]string, 0, len(r.downloaded[entityName]))
	for url := range r.downloaded[entityName] {
		urls = append(urls, url)
	}
	return urls, nil
}

func (r *fakeContentRepo) GetDownloadedCount() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, urls := range r.downloaded {
		count += len(urls)
	}
	return count, nil
}

func (r *fakeContentRepo) SaveUnfinished(items []database.UnfinishedItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		r.unfinished[item.EntityName] = append(r.unfinished[item.EntityName], item)
	}
	return nil
}

func (r *fakeContentRepo) LoadUnfinished(entityName string) ([]database.UnfinishedItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]database.UnfinishedItem(nil), r.unfinished[entityName]...), nil
}

func (r *fakeContentRepo) ClearUnfinished(entityName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.unfinished, entityName)
	return nil
}

func testEntityConfig(name string) *entity.Config {
	return &entity.Config{
		Name: name,
		Kind: entity.KindUser,
		Settings: entity.ConfigSettings{
			Enabled:         true,
			PostLimit:       25,
			AvoidDuplicates: true,
			DownloadImages:  true,
			DownloadVideos:  true,
		},
	}
}

func newProcessTestTask(e *entity.Entity, source SubmissionSource,
	entityRepo database.EntityRepository, contentRepo database.ContentRepository,
	queue *status.Queue, saveUndownloaded bool) *ProcessEntityTask {
	env := extract.NewEnv(http.DefaultClient, "grabbit-test", "")
	dispatcher := extract.NewDispatcher(env)
	executor := download.NewExecutor(http.DefaultClient, queue, download.Options{UserAgent: "grabbit-test"})
	return NewProcessEntityTask(e, source, dispatcher, executor,
		entityRepo, contentRepo, queue, 2, saveUndownloaded)
}

func TestProcessEntityTaskExecute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/pic.jpg" {
			w.Write([]byte("image-bytes"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	saveRoot := t.TempDir()
	e := entity.New(testEntityConfig("test_user"), saveRoot)

	created := time.Unix(1700000000, 0).UTC()
	source := &fakeSource{submissions: []content.Submission{{
		ID:        "abc123",
		Title:     "a picture",
		Author:    "test_user",
		Board:     "pics",
		URL:       server.URL + "/pic.jpg",
		CreatedAt: &created,
	}}}

	entityRepo := newFakeEntityRepo()
	contentRepo := newFakeContentRepo()
	queue := status.NewQueue()

	task := newProcessTestTask(e, source, entityRepo, contentRepo, queue, false)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	path := filepath.Join(saveRoot, "abc123.jpg")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected downloaded file at %s: %v", path, err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("file content = %q, want %q", data, "image-bytes")
	}

	if got := entityRepo.dateLimits["test_user"]; got != created.Unix() {
		t.Errorf("persisted watermark = %d, want %d", got, created.Unix())
	}

	url := server.URL + "/pic.jpg"
	if _, ok := contentRepo.downloaded["test_user"][url]; !ok {
		t.Errorf("expected %s marked as downloaded", url)
	}

	var saved bool
	for _, message := range queue.Drain() {
		if strings.HasPrefix(message, "Saved: ") {
			saved = true
		}
	}
	if !saved {
		t.Error("expected a Saved status message")
	}
}

func TestProcessEntityTaskFetchError(t *testing.T) {
	e := entity.New(testEntityConfig("test_user"), t.TempDir())
	source := &fakeSource{err: fmt.Errorf("listing unavailable")}

	task := newProcessTestTask(e, source, newFakeEntityRepo(), newFakeContentRepo(), status.NewQueue(), false)
	if err := task.Execute(context.Background()); err == nil {
		t.Error("expected an error when the submission source fails")
	}
}

func TestProcessEntityTaskPersistsUnfinished(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	e := entity.New(testEntityConfig("test_user"), t.TempDir())

	created := time.Unix(1700000100, 0).UTC()
	url := server.URL + "/gone.jpg"
	source := &fakeSource{submissions: []content.Submission{{
		ID:        "gone1",
		Title:     "vanished",
		Author:    "test_user",
		Board:     "pics",
		URL:       url,
		CreatedAt: &created,
	}}}

	contentRepo := newFakeContentRepo()
	task := newProcessTestTask(e, source, newFakeEntityRepo(), contentRepo, status.NewQueue(), true)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	unfinished, _ := contentRepo.LoadUnfinished("test_user")
	if len(unfinished) != 1 {
		t.Fatalf("unfinished count = %d, want 1", len(unfinished))
	}
	if unfinished[0].URL != url {
		t.Errorf("unfinished URL = %q, want %q", unfinished[0].URL, url)
	}
	if unfinished[0].SubmissionID != "gone1" {
		t.Errorf("unfinished submission id = %q, want %q", unfinished[0].SubmissionID, "gone1")
	}
}

func TestProcessEntityTaskSkipsKnownURLs(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("data"))
	}))
	defer server.Close()

	e := entity.New(testEntityConfig("test_user"), t.TempDir())
	url := server.URL + "/seen.jpg"
	e.SeedDownloaded([]string{url})

	created := time.Unix(1700000200, 0).UTC()
	source := &fakeSource{submissions: []content.Submission{{
		ID:        "seen1",
		Author:    "test_user",
		Board:     "pics",
		URL:       url,
		CreatedAt: &created,
	}}}

	task := newProcessTestTask(e, source, newFakeEntityRepo(), newFakeContentRepo(), status.NewQueue(), false)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if hits != 0 {
		t.Errorf("server hits = %d, want 0 for a deduplicated URL", hits)
	}
}

func TestSyncEntityTaskSeedsState(t *testing.T) {
	entityRepo := newFakeEntityRepo()
	contentRepo := newFakeContentRepo()

	entityRepo.entities["test_user"] = database.Entity{
		Name:      "test_user",
		Kind:      "user",
		DateLimit: 1600000000,
	}
	contentRepo.downloaded["test_user"] = map[string]struct{}{
		"https://i.imgur.com/known.jpg": {},
	}
	contentRepo.unfinished["test_user"] = []database.UnfinishedItem{{
		EntityName:   "test_user",
		URL:          "https://i.imgur.com/pending.jpg",
		PostTitle:    "pending",
		Board:        "pics",
		SubmissionID: "pend1",
		Extension:    ".jpg",
		SaveRoot:     "/tmp/save",
		Grouping:     "none",
		CreatedUTC:   1600000100,
	}}

	registry := entity.NewRegistry()
	task := NewSyncEntityTask(testEntityConfig("test_user"), "/tmp/save", registry, entityRepo, contentRepo)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	e, ok := registry.Get("test_user")
	if !ok {
		t.Fatal("expected entity registered after sync")
	}
	if got := e.Watermark(); got != 1600000000 {
		t.Errorf("Watermark() = %d, want 1600000000", got)
	}
	if got := e.LoadUnfinishedDownloads(); got != 1 {
		t.Errorf("LoadUnfinishedDownloads() = %d, want 1", got)
	}

	known := content.NewItem("https://i.imgur.com/known.jpg", "", "test_user", "known", "pics",
		"known1", 0, ".jpg", "/tmp/save", content.GroupNone, nil)
	if e.Offer(known) {
		t.Error("Offer() accepted a URL already in the download history")
	}
}

func TestSchedulerEnqueueTaskQueueFull(t *testing.T) {
	s := NewScheduler(nil, entity.NewRegistry(), &fakeSource{}, nil, nil,
		newFakeEntityRepo(), newFakeContentRepo(), status.NewQueue(),
		Options{Interval: time.Hour, WorkerCount: 0, DownloadWorkers: 1})

	for i := 0; i < cap(s.taskQueue); i++ {
		if err := s.EnqueueTask(&SyncEntityTask{Task: NewTask(TaskTypeSyncEntity, "x")}); err != nil {
			t.Fatalf("EnqueueTask() error on fill = %v", err)
		}
	}
	if err := s.EnqueueTask(&SyncEntityTask{Task: NewTask(TaskTypeSyncEntity, "x")}); err == nil {
		t.Error("expected an error when the task queue is full")
	}
}
