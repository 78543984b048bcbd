package upload

import "context"

type Repository interface {
	Create(ctx context.Context, u *Upload) error
	GetByID(ctx context.Context, id int64) (*Upload, error)
	List(ctx context.Context, limit, offset int) ([]*Upload, int, error)
	Delete(ctx context.Context, id int64) error
}
