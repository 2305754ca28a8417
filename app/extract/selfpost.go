package extract

import "context"

// selfPostAdapter turns a text submission into a text-only content item. No
// network call is involved.
type selfPostAdapter struct {
	base
}

func newSelfPostAdapter(ctx context.Context, env *Env, req Request) Adapter {
	return &selfPostAdapter{base: newBase(ctx, env, req)}
}

func (a *selfPostAdapter) Extract() Outcome {
	if a.req.Submission.SelfText == "" {
		a.failedToLocate("self post has no text")
		return a.out
	}
	a.makeContent("", a.req.Submission.SelfText, a.req.Submission.ID, 0, ".txt")
	return a.out
}

// redditUploadsAdapter handles the platform's own upload host. The submission
// URL downloads directly but carries no extension; images there are jpeg.
type redditUploadsAdapter struct {
	base
}

func newRedditUploadsAdapter(ctx context.Context, env *Env, req Request) Adapter {
	return &redditUploadsAdapter{base: newBase(ctx, env, req)}
}

func (a *redditUploadsAdapter) Extract() Outcome {
	a.makeContent(a.req.Submission.URL, "", a.req.Submission.ID, 0, ".jpg")
	return a.out
}
