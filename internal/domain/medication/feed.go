package medication

import "context"

// Feed serves the newest medication statements to the push channel.
type Feed struct {
	svc   *Service
	batch int
}

func NewFeed(svc *Service, batch int) *Feed {
	return &Feed{svc: svc, batch: batch}
}

func (f *Feed) Name() string { return "medications" }

func (f *Feed) Snapshot(ctx context.Context) (interface{}, error) {
	return f.svc.ListStatements(ctx, f.batch, 0)
}
