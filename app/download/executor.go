// Package download performs the actual transfer of resolved content items to
// disk and reports one terminal status message per item.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sync/atomic"
	"time"

	"github.com/marove/grabbit/app/content"
	"github.com/marove/grabbit/app/status"
)

const chunkSize = 32 * 1024

// mtimeWarnCap bounds how many timestamp-set failures are reported
// process-wide; past the cap they are silently dropped to avoid log flooding.
const mtimeWarnCap = 3

var mtimeWarnCount atomic.Int32

// Options carries the global settings the executor needs, passed in at
// construction instead of read from process-wide state.
type Options struct {
	SetFileModifiedDate bool
	UserAgent           string
}

// Executor downloads one content item at a time. Concurrency across items is
// the caller's concern (the task scheduler runs one executor call per worker);
// within an item, directory create, write, timestamp set, and status report
// run strictly in order.
type Executor struct {
	client *http.Client
	queue  *status.Queue
	opts   Options
}

func NewExecutor(client *http.Client, queue *status.Queue, opts Options) *Executor {
	return &Executor{client: client, queue: queue, opts: opts}
}

// Run transfers one item. The containing directory is created first; a
// failure there is logged but the download is still attempted. On success the
// item's Downloaded flag is set and a success message is emitted; every
// failure category produces exactly one status message and leaves the flag
// unset. The returned error mirrors the failure for the task layer's retry
// accounting and is always already reported.
func (x *Executor) Run(ctx context.Context, item *content.Item) error {
	x.ensureDir(item)

	if item.URL != "" {
		if err := x.downloadURL(ctx, item); err != nil {
			return err
		}
	}
	if item.Text != "" {
		if err := x.writeText(item); err != nil {
			return err
		}
	}

	x.setFileModifiedDate(item)
	item.Downloaded = true
	x.queue.Put(fmt.Sprintf("Saved: %s", item.FilePath))
	return nil
}

// ensureDir creates the containing directory. A permission failure here does
// not abort the item; the write attempt itself will surface the real error.
func (x *Executor) ensureDir(item *content.Item) {
	if err := os.MkdirAll(item.Dir, 0o755); err != nil {
		slog.Error("Could not create directory path for content",
			"path", item.Dir, "board", item.Board, "error", err)
	}
}

func (x *Executor) downloadURL(ctx context.Context, item *content.Item) error {
	req, err := http.NewRequestWithContext(ctx, "GET", item.URL, nil)
	if err != nil {
		return x.handleSaveException(item, err)
	}
	req.Header.Set("User-Agent", x.opts.UserAgent)

	resp, err := x.client.Do(req)
	if err != nil {
		if isConnectionError(err) {
			return x.handleConnectionError(item, err)
		}
		return x.handleSaveException(item, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return x.handleUnsuccessfulResponse(item, resp.StatusCode)
	}

	file, err := os.Create(item.FilePath)
	if err != nil {
		return x.handleSaveException(item, err)
	}
	defer file.Close()

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(file, resp.Body, buf); err != nil {
		os.Remove(item.FilePath)
		if isConnectionError(err) {
			return x.handleConnectionError(item, err)
		}
		return x.handleSaveException(item, err)
	}
	return nil
}

func (x *Executor) writeText(item *content.Item) error {
	if err := os.WriteFile(item.FilePath, []byte(item.Text), 0o644); err != nil {
		return x.handleSaveException(item, err)
	}
	return nil
}

// setFileModifiedDate rewrites the file's modification time to the original
// post time. Best effort and feature flagged; failures never fail the
// download and warnings are capped process-wide.
func (x *Executor) setFileModifiedDate(item *content.Item) {
	if !x.opts.SetFileModifiedDate || item.CreatedAt == nil {
		return
	}
	if err := os.Chtimes(item.FilePath, time.Now(), *item.CreatedAt); err != nil {
		if mtimeWarnCount.Add(1) <= mtimeWarnCap {
			x.queue.Put(fmt.Sprintf("Could not set date modified for file: %s", item.FilePath))
			slog.Error("Failed to set date modified for file", "path", item.FilePath, "error", err)
		}
	}
}

func (x *Executor) handleUnsuccessfulResponse(item *content.Item, statusCode int) error {
	slog.Warn("Failed Download: Unsuccessful response from server",
		"response_code", statusCode, "url", item.URL, "user", item.Owner,
		"submission_id", item.SubmissionID, "number_in_seq", item.SeqIndex)
	seq := ""
	if item.SeqIndex > 0 {
		seq = fmt.Sprintf(" %d", item.SeqIndex)
	}
	x.queue.Put(fmt.Sprintf(
		"Failed Download:  File %s%s posted by %s failed to download...try link to download manually: %s",
		item.SubmissionID, seq, item.Owner, item.URL))
	return fmt.Errorf("unsuccessful response: %d", statusCode)
}

func (x *Executor) handleConnectionError(item *content.Item, err error) error {
	slog.Error("Failed to establish a connection",
		"url", item.URL, "user", item.Owner, "submission_id", item.SubmissionID,
		"number_in_seq", item.SeqIndex, "extension", item.Extension, "error", err)
	x.queue.Put(fmt.Sprintf(
		"Failed Download: Failed to establish a connection to url: %s\nUser: %s, Board: %s, Title: %s",
		item.URL, item.Owner, item.Board, item.PostTitle))
	return fmt.Errorf("connection error: %w", err)
}

func (x *Executor) handleSaveException(item *content.Item, err error) error {
	slog.Error("Failed to save content: Exception while saving file",
		"url", item.URL, "save_path", item.FilePath, "error", err)
	x.queue.Put(fmt.Sprintf("Failed to save content: %s", item.FilePath))
	return fmt.Errorf("save failed: %w", err)
}

// isConnectionError reports whether the error is a transport-level failure
// rather than a local one.
func isConnectionError(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
