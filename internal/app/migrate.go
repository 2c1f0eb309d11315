package app

import (
	"fmt"

	"hedera-defi/internal/storage"
)

// Migrate applies pending schema migrations from database.migrations_path.
func (a *App) Migrate() error {
	version, err := storage.Migrate(a.Config.Database.DSN, a.Config.Database.MigrationsPath)
	if err != nil {
		return err
	}
	a.Logger.Info().Uint("version", version).Msg("schema up to date")
	fmt.Fprintf(a.Out, "schema version: %d\n", version)
	return nil
}
