package entity

import (
	"sync"
	"time"

	"github.com/marove/grabbit/app/content"
)

// Entity is one tracked user or board together with its running download-pass
// state. All state mutation goes through the entity's own mutex; entities are
// independent of each other and share nothing.
type Entity struct {
	Name            string
	Kind            Kind
	SaveRoot        string
	PostLimit       int
	AvoidDuplicates bool
	DownloadImages  bool
	DownloadVideos  bool
	Grouping        content.Grouping
	UserAdded       bool

	// DoNotEdit locks the custom date limit against automatic expiry.
	DoNotEdit bool

	mu sync.Mutex

	// dateLimit is the watermark: the most recent post creation time (epoch
	// seconds) covered so far. Zero means unset.
	dateLimit int64

	// customDateLimit overrides the watermark until it expires or is cleared.
	customDateLimit *int64

	alreadyDownloaded map[string]struct{}
	contentList       []*content.Item
	failedExtracts    []string
	savedSubmissions  []content.Submission
	savedContent      map[string]SavedItem
}

// New builds an entity from its watch-list config. The save root passed in is
// already resolved (entity override or global default).
func New(cfg *Config, saveRoot string) *Entity {
	return &Entity{
		Name:              cfg.Name,
		Kind:              cfg.Kind,
		SaveRoot:          saveRoot,
		PostLimit:         cfg.Settings.PostLimit,
		AvoidDuplicates:   cfg.Settings.AvoidDuplicates,
		DownloadImages:    cfg.Settings.DownloadImages,
		DownloadVideos:    cfg.Settings.DownloadVideos,
		Grouping:          content.ParseGrouping(cfg.Settings.Grouping),
		UserAdded:         cfg.Settings.UserAdded,
		alreadyDownloaded: make(map[string]struct{}),
		savedContent:      make(map[string]SavedItem),
	}
}

// SetDateLimit advances the watermark and, independently, expires the custom
// override once it has been passed. The override is only cleared after the
// watermark check, and never while DoNotEdit is held; the ordering of the two
// conditionals determines when overrides expire and must not change.
func (e *Entity) SetDateLimit(t int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dateLimit != 0 && t > e.dateLimit {
		e.dateLimit = t
	} else if e.dateLimit == 0 {
		e.dateLimit = t
	}
	if !e.DoNotEdit && e.customDateLimit != nil && *e.customDateLimit < t {
		e.customDateLimit = nil
	}
}

// DateLimit returns the effective scan boundary: the custom override when one
// is set, the watermark otherwise. Zero means no boundary.
func (e *Entity) DateLimit() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.customDateLimit != nil {
		return *e.customDateLimit
	}
	return e.dateLimit
}

// Watermark returns the raw watermark regardless of any override.
func (e *Entity) Watermark() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dateLimit
}

// SetCustomDateLimit installs an override; RestoreDateLimit restores automatic
// watermark behavior.
func (e *Entity) SetCustomDateLimit(t int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.customDateLimit = &t
}

func (e *Entity) RestoreDateLimit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.customDateLimit = nil
}

// CustomDateLimit returns a copy of the current override, nil when unset.
func (e *Entity) CustomDateLimit() *int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.customDateLimit == nil {
		return nil
	}
	v := *e.customDateLimit
	return &v
}

// LoadWatermark seeds the watermark from persisted state at pass start.
func (e *Entity) LoadWatermark(t int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dateLimit = t
}

// SeedDownloaded pre-populates the dedup set from persisted download history.
func (e *Entity) SeedDownloaded(urls []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, u := range urls {
		e.alreadyDownloaded[u] = struct{}{}
	}
}

// Offer runs the item through the media and dedup gates in order: image gate,
// video gate, dedup gate, short-circuit. An accepted item joins the content
// list and the dedup set; a rejected item is discarded without touching the
// dedup set, so a later pass may offer it again.
func (e *Entity) Offer(item *content.Item) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.DownloadImages && content.IsImageExtension(item.Extension) {
		return false
	}
	if !e.DownloadVideos && content.IsVideoExtension(item.Extension) {
		return false
	}
	if e.AvoidDuplicates && item.URL != "" {
		if _, seen := e.alreadyDownloaded[item.URL]; seen {
			return false
		}
	}

	e.contentList = append(e.contentList, item)
	if item.URL != "" {
		e.alreadyDownloaded[item.URL] = struct{}{}
	}
	return true
}

// AddFailedExtract records a human-readable extraction failure.
func (e *Entity) AddFailedExtract(message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failedExtracts = append(e.failedExtracts, message)
}

// SaveSubmission queues a submission for retry on the next pass. Duplicate
// URLs are dropped.
func (e *Entity) SaveSubmission(sub content.Submission) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, saved := range e.savedSubmissions {
		if saved.URL == sub.URL {
			return
		}
	}
	e.savedSubmissions = append(e.savedSubmissions, sub)
}

// TakeSavedSubmissions hands out the retry queue and empties it; the entries
// are fed back through extraction at the start of the pass.
func (e *Entity) TakeSavedSubmissions() []content.Submission {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.savedSubmissions
	e.savedSubmissions = nil
	return out
}

// Content returns the resolved items accumulated this pass.
func (e *Entity) Content() []*content.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*content.Item, len(e.contentList))
	copy(out, e.contentList)
	return out
}

// FailedExtracts returns the accumulated failure messages.
func (e *Entity) FailedExtracts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.failedExtracts))
	copy(out, e.failedExtracts)
	return out
}

// DownloadedCount reports the size of the dedup set.
func (e *Entity) DownloadedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.alreadyDownloaded)
}

// ClearDownloadSessionData ends a pass. When saveUndownloaded is set, every
// item that never finished is snapshotted for resume before the in-memory
// lists are cleared. The content list and failure list are always cleared;
// submissions saved for resubmission survive so the next pass retries them.
func (e *Entity) ClearDownloadSessionData(saveUndownloaded bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if saveUndownloaded {
		for _, item := range e.contentList {
			if item.Downloaded || item.URL == "" {
				continue
			}
			e.savedContent[item.URL] = SavedItem{
				Text:         item.Text,
				Owner:        item.Owner,
				PostTitle:    item.PostTitle,
				Board:        item.Board,
				SubmissionID: item.SubmissionID,
				SeqIndex:     item.SeqIndex,
				Extension:    item.Extension,
				SaveRoot:     e.SaveRoot,
				Grouping:     item.Grouping,
				CreatedUTC:   epochOrZero(item.CreatedAt),
			}
		}
	}

	e.contentList = nil
	e.failedExtracts = nil
}

// LoadUnfinishedDownloads rebuilds content items from the resume snapshot and
// clears it, repopulating pending work for the current pass.
func (e *Entity) LoadUnfinishedDownloads() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0
	for url, saved := range e.savedContent {
		var createdAt *time.Time
		if saved.CreatedUTC != 0 {
			t := time.Unix(saved.CreatedUTC, 0).UTC()
			createdAt = &t
		}
		item := content.NewItem(url, saved.Text, saved.Owner, saved.PostTitle, saved.Board,
			saved.SubmissionID, saved.SeqIndex, saved.Extension, saved.SaveRoot,
			saved.Grouping, createdAt)
		e.contentList = append(e.contentList, item)
		count++
	}
	e.savedContent = make(map[string]SavedItem)
	return count
}

// SavedContent exposes the resume snapshot for persistence at shutdown.
func (e *Entity) SavedContent() map[string]SavedItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]SavedItem, len(e.savedContent))
	for k, v := range e.savedContent {
		out[k] = v
	}
	return out
}

// SeedSavedContent restores a persisted resume snapshot at startup.
func (e *Entity) SeedSavedContent(saved map[string]SavedItem) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, v := range saved {
		e.savedContent[k] = v
	}
}

func epochOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.Unix()
}
