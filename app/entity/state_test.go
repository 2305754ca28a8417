package entity

import (
	"testing"
	"time"

	"github.com/marove/grabbit/app/content"
)

func testEntity() *Entity {
	return New(&Config{
		Name: "alice",
		Kind: KindUser,
		Settings: ConfigSettings{
			Enabled:         true,
			PostLimit:       25,
			AvoidDuplicates: true,
			DownloadImages:  true,
			DownloadVideos:  true,
		},
	}, "/save")
}

func testItem(url, ext string) *content.Item {
	return content.NewItem(url, "", "alice", "a title", "pics", "abc123", 0, ext,
		"/save", content.GroupNone, nil)
}

func TestSetDateLimit_Watermark(t *testing.T) {
	e := testEntity()

	// Unset watermark initializes from the first value.
	e.SetDateLimit(100)
	if got := e.Watermark(); got != 100 {
		t.Errorf("expected watermark 100 after first call, got %d", got)
	}

	// Monotonically non-decreasing across out-of-order times.
	e.SetDateLimit(50)
	e.SetDateLimit(200)
	if got := e.Watermark(); got != 200 {
		t.Errorf("expected watermark 200, got %d", got)
	}
}

func TestSetDateLimit_CustomOverrideExpiry(t *testing.T) {
	e := testEntity()
	e.SetCustomDateLimit(150)

	if got := e.DateLimit(); got != 150 {
		t.Errorf("expected override 150 before expiry, got %d", got)
	}

	// A timestamp below the override leaves it in place.
	e.SetDateLimit(120)
	if got := e.DateLimit(); got != 150 {
		t.Errorf("expected override retained for earlier timestamp, got %d", got)
	}

	// A timestamp past the override expires it and the watermark takes over.
	e.SetDateLimit(300)
	if got := e.DateLimit(); got != 300 {
		t.Errorf("expected override cleared once passed, got %d", got)
	}
}

func TestSetDateLimit_DoNotEditLocksOverride(t *testing.T) {
	e := testEntity()
	e.DoNotEdit = true
	e.SetCustomDateLimit(150)

	e.SetDateLimit(300)

	// The watermark still advances, but the override survives.
	if got := e.Watermark(); got != 300 {
		t.Errorf("expected watermark 300, got %d", got)
	}
	if got := e.DateLimit(); got != 150 {
		t.Errorf("expected locked override 150, got %d", got)
	}
}

func TestOffer_DedupGate(t *testing.T) {
	e := testEntity()

	if !e.Offer(testItem("https://i.example.com/a.jpg", ".jpg")) {
		t.Fatal("expected first offer to be accepted")
	}
	if e.Offer(testItem("https://i.example.com/a.jpg", ".jpg")) {
		t.Error("expected duplicate URL to be rejected")
	}
	if e.DownloadedCount() != 1 {
		t.Errorf("expected 1 tracked URL, got %d", e.DownloadedCount())
	}

	// Dedup disabled accepts the repeat.
	e.AvoidDuplicates = false
	if !e.Offer(testItem("https://i.example.com/a.jpg", ".jpg")) {
		t.Error("expected duplicate accepted with avoid_duplicates off")
	}
}

func TestOffer_MediaGates(t *testing.T) {
	e := testEntity()
	e.DownloadImages = false

	if e.Offer(testItem("https://i.example.com/a.png", ".png")) {
		t.Error("expected image rejected with download_images off")
	}
	// A rejected item must not enter the dedup set.
	if e.DownloadedCount() != 0 {
		t.Errorf("expected rejected item to stay out of dedup set, got %d entries", e.DownloadedCount())
	}

	// Non-image content is unaffected by the image gate.
	if !e.Offer(testItem("https://i.example.com/a.txt", ".txt")) {
		t.Error("expected text item to pass the image gate")
	}

	e.DownloadImages = true
	if !e.Offer(testItem("https://i.example.com/b.png", ".png")) {
		t.Error("expected image accepted with download_images on")
	}

	e.DownloadVideos = false
	if e.Offer(testItem("https://i.example.com/c.mp4", ".mp4")) {
		t.Error("expected video rejected with download_videos off")
	}
}

func TestClearDownloadSessionData_SavesUndownloaded(t *testing.T) {
	e := testEntity()
	created := time.Unix(1500000000, 0).UTC()

	done := content.NewItem("https://i.example.com/done.jpg", "", "alice", "t", "pics",
		"id1", 0, ".jpg", "/save", content.GroupNone, &created)
	done.Downloaded = true
	pending := content.NewItem("https://i.example.com/pending.jpg", "", "alice", "t", "pics",
		"id2", 0, ".jpg", "/save", content.GroupNone, &created)

	e.Offer(done)
	e.Offer(pending)
	e.AddFailedExtract("some failure")

	e.ClearDownloadSessionData(true)

	if len(e.Content()) != 0 {
		t.Errorf("expected content list cleared, got %d items", len(e.Content()))
	}
	if len(e.FailedExtracts()) != 0 {
		t.Errorf("expected failure list cleared, got %d", len(e.FailedExtracts()))
	}

	saved := e.SavedContent()
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved item, got %d", len(saved))
	}
	if _, ok := saved["https://i.example.com/pending.jpg"]; !ok {
		t.Error("expected the undownloaded item to be snapshotted")
	}
}

func TestClearDownloadSessionData_DisabledSkipsSnapshot(t *testing.T) {
	e := testEntity()
	e.Offer(testItem("https://i.example.com/pending.jpg", ".jpg"))

	e.ClearDownloadSessionData(false)

	if len(e.SavedContent()) != 0 {
		t.Errorf("expected no snapshot with save_undownloaded_content off, got %d",
			len(e.SavedContent()))
	}
	if len(e.Content()) != 0 {
		t.Error("expected content list cleared regardless of setting")
	}
}

func TestLoadUnfinishedDownloads(t *testing.T) {
	e := testEntity()
	e.SeedSavedContent(map[string]SavedItem{
		"https://i.example.com/resume.jpg": {
			Owner:        "alice",
			PostTitle:    "t",
			Board:        "pics",
			SubmissionID: "id9",
			Extension:    ".jpg",
			SaveRoot:     "/save",
			Grouping:     content.GroupNone,
			CreatedUTC:   1500000000,
		},
	})

	if n := e.LoadUnfinishedDownloads(); n != 1 {
		t.Fatalf("expected 1 reconstructed item, got %d", n)
	}

	items := e.Content()
	if len(items) != 1 {
		t.Fatalf("expected 1 pending item, got %d", len(items))
	}
	item := items[0]
	if item.URL != "https://i.example.com/resume.jpg" || item.SubmissionID != "id9" {
		t.Errorf("unexpected reconstructed item: %+v", item)
	}
	if item.CreatedAt == nil || item.CreatedAt.Unix() != 1500000000 {
		t.Error("expected creation time restored from the snapshot")
	}

	// The snapshot is consumed.
	if len(e.SavedContent()) != 0 {
		t.Error("expected snapshot cleared after load")
	}
}

func TestClearDownloadSessionData_KeepsRetryQueue(t *testing.T) {
	e := testEntity()
	sub := content.Submission{ID: "x", URL: "https://imgur.com/a/xyz"}

	e.SaveSubmission(sub)
	e.ClearDownloadSessionData(false)

	saved := e.TakeSavedSubmissions()
	if len(saved) != 1 {
		t.Fatalf("expected the saved submission to survive the pass end, got %d", len(saved))
	}
	if saved[0].URL != sub.URL {
		t.Errorf("saved submission URL = %q, want %q", saved[0].URL, sub.URL)
	}
}

func TestSaveSubmission_DedupesByURL(t *testing.T) {
	e := testEntity()
	sub := content.Submission{ID: "x", URL: "https://imgur.com/a/xyz"}

	e.SaveSubmission(sub)
	e.SaveSubmission(sub)

	if got := e.TakeSavedSubmissions(); len(got) != 1 {
		t.Errorf("expected 1 saved submission, got %d", len(got))
	}
	if got := e.TakeSavedSubmissions(); len(got) != 0 {
		t.Errorf("expected retry queue emptied after take, got %d", len(got))
	}
}
