package notebase

import (
	"context"
	"fmt"
)

// Main parses args, builds the application, and executes the requested
// command. It is the whole entry point, callable from tests without
// building the binary.
func Main(ctx context.Context, args []string) error {
	cmd, config, err := Parse(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	app, err := New(config)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer app.Close()

	switch c := cmd.(type) {
	case *MigrateCommand:
		if err := app.Migrate(ctx, c); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	case *RunCommand:
		if err := app.Run(ctx, c); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}
	return nil
}

// Migrate brings the database schema up to date.
func (a *App) Migrate(ctx context.Context, _ *MigrateCommand) error {
	a.log.Info().Msg("running migrations")
	if err := a.store.Migrate(ctx); err != nil {
		return err
	}
	a.log.Info().Msg("migrations complete")
	return nil
}
