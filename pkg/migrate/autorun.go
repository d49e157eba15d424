package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

// MaybeRunDev prepares the schema at startup. sqlite is always built from the
// models; postgres runs the embedded goose files only in dev with
// STOCKLEDGER_AUTO_MIGRATE on.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	switch {
	case cfg.DB.IsSQLite():
		logg.Info(ctx, "migrate.sqlite_automigrate")
		if err := client.AutoMigrate(ctx); err != nil {
			return fmt.Errorf("sqlite auto-migrate: %w", err)
		}
		return nil
	case !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate:
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	src := EmbeddedSource()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "source": src.String()})
	logg.Info(ctx, "migrate.dev_autorun")
	if err := Run(ctx, sqlDB, src, "up"); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.dev_autorun_done")
	return nil
}
