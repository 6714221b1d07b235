package storage

import (
	"context"
	"errors"

	"github.com/sandeepkv93/intervald/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

// PreferenceStore is a small string key/value store.
type PreferenceStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type RunStore interface {
	RecordRun(ctx context.Context, in Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, filter RunListFilter) ([]Run, error)
}

type Repository interface {
	PreferenceStore
	RunStore
	LoadConfig(ctx context.Context) (model.Config, error)
	SaveConfig(ctx context.Context, cfg model.Config) error
}
