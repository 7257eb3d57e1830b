package vitals

import "context"

// Feed serves the newest observations to the push channel.
type Feed struct {
	svc   *Service
	batch int
}

func NewFeed(svc *Service, batch int) *Feed {
	return &Feed{svc: svc, batch: batch}
}

func (f *Feed) Name() string { return "vitals" }

func (f *Feed) Snapshot(ctx context.Context) (interface{}, error) {
	return f.svc.ListObservations(ctx, f.batch, 0)
}
