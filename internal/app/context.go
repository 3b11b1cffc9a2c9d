package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"holdingboard/internal/config"
	"holdingboard/internal/repo"
)

const settingsKey = "group_settings"

// ResolveSettings loads the stored group settings, seeding defaults when the
// workspace has never been configured. A holdingboard.yml next to the
// workspace takes precedence over the seed and is imported on first use.
func ResolveSettings(ctx context.Context, workspace, groupOverride string, r repo.Repo) (*config.Config, error) {
	raw, err := r.GetSetting(ctx, settingsKey)
	if err == nil {
		var cfg config.Config
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return nil, fmt.Errorf("stored settings corrupt: %w", err)
		}
		if groupOverride != "" {
			cfg.Group.ID = groupOverride
		}
		return &cfg, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	cfg, ferr := config.Load(workspace)
	if ferr != nil {
		groupID := groupOverride
		if groupID == "" {
			groupID = "default-group"
		}
		cfg = config.Default(groupID)
	}
	if groupOverride != "" {
		cfg.Group.ID = groupOverride
	}
	if err := ImportSettings(ctx, r, cfg); err != nil {
		return nil, fmt.Errorf("seed settings: %w", err)
	}
	return cfg, nil
}

// ImportSettings validates a config and stores it as the group settings row.
func ImportSettings(ctx context.Context, r repo.Repo, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return r.PutSetting(ctx, settingsKey, string(data))
}
