package queryhistory

import "context"

type Repository interface {
	Append(ctx context.Context, e *Entry) error
	List(ctx context.Context, limit int, patientID *int64) ([]*Entry, error)
}
