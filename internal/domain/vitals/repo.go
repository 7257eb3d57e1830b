package vitals

import "context"

// Repository reads and writes vitals rows. List returns newest first.
type Repository interface {
	Create(ctx context.Context, v *VitalsLog) error
	List(ctx context.Context, limit, offset int) ([]*VitalsLog, error)
}
