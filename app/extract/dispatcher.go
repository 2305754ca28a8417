package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marove/grabbit/app/content"
	"github.com/marove/grabbit/app/entity"
)

// registration binds a set of domain keywords to an adapter constructor.
// Matching is substring-based against the submission URL, so the table order
// is the priority order.
type registration struct {
	keywords []string
	build    func(ctx context.Context, env *Env, req Request) Adapter
}

var registry = []registration{
	{[]string{"imgur"}, newImgurAdapter},
	{[]string{"gfycat", "redgifs"}, newGfycatAdapter},
	{[]string{"vidble"}, newVidbleAdapter},
	{[]string{"reddituploads"}, newRedditUploadsAdapter},
}

// Dispatcher routes each submission in a batch to the adapter matching its
// URL domain, with a direct-link fallback for bare media URLs, and folds the
// results into the entity's pass state.
type Dispatcher struct {
	env *Env
}

func NewDispatcher(env *Env) *Dispatcher {
	return &Dispatcher{env: env}
}

// Summary reports what a batch produced.
type Summary struct {
	Submissions int
	Extracted   int
	Accepted    int
	Failed      int
	Resubmitted int
}

// Run extracts a batch of submissions for one entity. Saved submissions from
// the previous pass are taken first, then the new batch. Every submission
// produces at least one content item or one failure message; none silently
// disappears.
func (d *Dispatcher) Run(ctx context.Context, e *entity.Entity, submissions []content.Submission) Summary {
	var sum Summary

	batch := append(e.TakeSavedSubmissions(), submissions...)
	for _, sub := range batch {
		sum.Submissions++
		d.dispatch(ctx, e, sub, &sum)

		// Watermark update is unconditional per submission; a missing
		// creation time is tolerated and skipped.
		if sub.CreatedAt != nil {
			e.SetDateLimit(sub.CreatedAt.Unix())
		}
	}

	return sum
}

func (d *Dispatcher) dispatch(ctx context.Context, e *entity.Entity, sub content.Submission, sum *Summary) {
	req := Request{
		Submission: sub,
		Owner:      e.Name,
		SaveRoot:   e.SaveRoot,
		Grouping:   e.Grouping,
	}

	adapter := d.assign(ctx, req)
	if adapter == nil {
		sum.Failed++
		e.AddFailedExtract(fmt.Sprintf(
			"Could not extract links from post: %s submitted by: %s\nUrl domain not supported.  Url: %s",
			sub.Title, sub.Author, sub.URL))
		return
	}

	outcome := adapter.Extract()

	for _, res := range outcome.Results {
		if res.Failure != nil {
			sum.Failed++
			e.AddFailedExtract(res.Failure.Message)
			slog.Warn("Extraction failed", "entity", e.Name, "kind", string(res.Failure.Kind),
				"url", sub.URL)
			continue
		}
		sum.Extracted++
		if e.Offer(res.Item) {
			sum.Accepted++
		}
	}

	for _, retry := range outcome.Resubmit {
		sum.Resubmitted++
		e.SaveSubmission(retry)
	}
}

// assign picks the adapter for a submission: self posts first, then the first
// registry entry whose keyword appears in the URL, then the direct-link
// fallback when the URL ends in a known media extension. nil means the domain
// is unsupported.
func (d *Dispatcher) assign(ctx context.Context, req Request) Adapter {
	if req.Submission.SelfPost {
		return newSelfPostAdapter(ctx, d.env, req)
	}

	lowered := strings.ToLower(req.Submission.URL)
	for _, reg := range registry {
		for _, keyword := range reg.keywords {
			if strings.Contains(lowered, keyword) {
				return reg.build(ctx, d.env, req)
			}
		}
	}

	if content.IsMediaURL(req.Submission.URL) {
		return newDirectAdapter(ctx, d.env, req)
	}
	return nil
}
