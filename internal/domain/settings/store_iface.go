package settings

import "context"

type StoreAPI interface {
	Get(ctx context.Context) (Settings, error)
	Put(ctx context.Context, s Settings) error
}
