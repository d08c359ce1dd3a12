package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-bff/pkg/config"
	"github.com/angelmondragon/storefront-bff/pkg/db"
	"github.com/angelmondragon/storefront-bff/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on startup in dev when
// STOREFRONT_AUTO_MIGRATE is set. Other environments run cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	applied, err := Run(ctx, sqlDB, client.Driver(), "", "up")
	if err != nil {
		return err
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"driver": client.Driver(), "applied": len(applied)}), "dev migrations applied")
	return nil
}
