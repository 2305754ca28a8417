package extract

import "context"

// directAdapter handles URLs whose path already ends in a known media
// extension. No network call is needed to decide validity; a bad link only
// fails at download time.
type directAdapter struct {
	base
}

func newDirectAdapter(ctx context.Context, env *Env, req Request) Adapter {
	return &directAdapter{base: newBase(ctx, env, req)}
}

func (a *directAdapter) Extract() Outcome {
	id, ext := splitMediaURL(a.req.Submission.URL)
	if ext == "" {
		a.failedToLocate("direct link has no file extension")
		return a.out
	}
	a.makeContent(a.req.Submission.URL, "", id, 0, ext)
	return a.out
}
