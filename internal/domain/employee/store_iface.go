package employee

import "context"

type StoreAPI interface {
	List(ctx context.Context) ([]Employee, error)
	Get(ctx context.Context, id int64) (Employee, error)
	ReplaceAll(ctx context.Context, employees []Employee) error
	Add(ctx context.Context, e Employee) error
	Update(ctx context.Context, e Employee) error
	Remove(ctx context.Context, id int64) error
}
