package workingdays

import "context"

type StoreAPI interface {
	Get(ctx context.Context) (Data, error)
	Put(ctx context.Context, data Data) error
}
