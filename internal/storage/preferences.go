package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sandeepkv93/intervald/internal/model"
)

// Preference keys for the last used configuration.
const (
	KeyWork    = "work"
	KeyCycles  = "cycles"
	KeySets    = "sets"
	KeyPrepare = "prepare"
	KeyMuted   = "isMuted"
)

// LoadConfig reads the stored configuration. Missing or unparsable keys
// fall back to the defaults.
func LoadConfig(ctx context.Context, store PreferenceStore) (model.Config, error) {
	cfg := model.DefaultConfig()
	ints := []struct {
		key string
		dst *int
	}{
		{KeyWork, &cfg.Work},
		{KeyCycles, &cfg.Cycles},
		{KeySets, &cfg.Sets},
		{KeyPrepare, &cfg.Prepare},
	}
	for _, f := range ints {
		raw, ok, err := store.Get(ctx, f.key)
		if err != nil {
			return model.DefaultConfig(), fmt.Errorf("load %s: %w", f.key, err)
		}
		if !ok {
			continue
		}
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			*f.dst = n
		}
	}
	raw, ok, err := store.Get(ctx, KeyMuted)
	if err != nil {
		return model.DefaultConfig(), fmt.Errorf("load %s: %w", KeyMuted, err)
	}
	if ok {
		if b, convErr := strconv.ParseBool(raw); convErr == nil {
			cfg.Muted = b
		}
	}
	if cfg.Validate() != nil {
		muted := cfg.Muted
		cfg = model.DefaultConfig()
		cfg.Muted = muted
	}
	return cfg, nil
}

func SaveConfig(ctx context.Context, store PreferenceStore, cfg model.Config) error {
	values := []struct {
		key   string
		value string
	}{
		{KeyWork, strconv.Itoa(cfg.Work)},
		{KeyCycles, strconv.Itoa(cfg.Cycles)},
		{KeySets, strconv.Itoa(cfg.Sets)},
		{KeyPrepare, strconv.Itoa(cfg.Prepare)},
		{KeyMuted, strconv.FormatBool(cfg.Muted)},
	}
	for _, v := range values {
		if err := store.Set(ctx, v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}
