package results

import "context"

// Provider fetches the results matching a query.
type Provider interface {
	Fetch(ctx context.Context, q Query) ([]CourseResult, error)
}

// StaticProvider answers every query with the same result set.
type StaticProvider struct {
	results []CourseResult
}

func NewStaticProvider(results []CourseResult) *StaticProvider {
	cp := make([]CourseResult, len(results))
	copy(cp, results)
	return &StaticProvider{results: cp}
}

func (p *StaticProvider) Fetch(ctx context.Context, _ Query) ([]CourseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]CourseResult, len(p.results))
	copy(out, p.results)
	return out, nil
}
