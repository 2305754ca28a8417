package extract

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/marove/grabbit/app/content"
)

// base carries the per-request state shared by every adapter and the helpers
// that build results from it.
type base struct {
	env *Env
	ctx context.Context
	req Request
	out Outcome
}

func newBase(ctx context.Context, env *Env, req Request) base {
	return base{env: env, ctx: ctx, req: req}
}

// makeContent resolves the file location and appends a content item to the
// outcome. nameID is the identifier the file is named after: the host media
// or album id where the adapter resolved one, the submission id otherwise.
func (b *base) makeContent(rawURL, text, nameID string, seqIndex int, extension string) {
	item := content.NewItem(rawURL, text, b.req.Owner, b.req.Submission.Title,
		b.req.Submission.Board, nameID, seqIndex, extension,
		b.req.SaveRoot, b.req.Grouping, b.req.Submission.CreatedAt)
	b.out.addItem(item)
}

// failedToLocate records a permanent per-item failure: the host answered but
// the concrete media could not be resolved.
func (b *base) failedToLocate(reason string) {
	b.out.addFailure(FailureFailedToLocate,
		fmt.Sprintf("Failed to extract content from %s posted by %s: %s",
			b.req.Submission.URL, b.req.Submission.Author, reason))
}

// connectionFailed records a transport-level failure and queues the
// submission for retry on the next pass.
func (b *base) connectionFailed(err error) {
	b.out.addFailure(FailureConnectionError,
		fmt.Sprintf("Failed to establish a connection extracting %s posted by %s: %v",
			b.req.Submission.URL, b.req.Submission.Author, err))
	b.out.Resubmit = append(b.out.Resubmit, b.req.Submission)
}

// fail routes an extraction error to the right failure category.
func (b *base) fail(err error) {
	if errors.Is(err, errConnection) {
		b.connectionFailed(err)
		return
	}
	b.failedToLocate(err.Error())
}

// urlBasename returns the last path segment of the URL with any query cut off.
func urlBasename(rawURL string) string {
	trimmed := rawURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return path.Base(trimmed)
}

// splitMediaURL splits "https://host/dir/id.ext" into (id, ".ext"). The
// extension is lowercased; an empty extension means the URL is not a direct
// media link.
func splitMediaURL(rawURL string) (id, ext string) {
	name := urlBasename(rawURL)
	ext = strings.ToLower(path.Ext(name))
	return strings.TrimSuffix(name, path.Ext(name)), ext
}
