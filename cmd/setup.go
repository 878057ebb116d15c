package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/arcana/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

// LoadConfig runs before every command and loads the file named by --config.
//
// A missing file falls back to the built-in defaults so that `setup config` can create it.
func (r *Runner) LoadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	if path == "" {
		path = defaultConfigPath
	}
	r.configPath = path

	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		config := shared.DefaultConfig()
		config.ApplyEnv()
		r.config = config
		return ctx, nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return ctx, err
	}
	r.config = config
	return ctx, nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if cmd.Bool("reset") {
		r.logger.Warn("resetting database, stored tokens will be discarded")
		if err := shared.ResetDatabase(db); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
	} else {
		r.logger.Info("running database migrations")
		if err := shared.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}

// SetupConfig writes a config file from the embedded template.
//
// Without --client-id or --redirect-uri the commented template is copied as is.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = defaultConfigPath
	}
	clientID := cmd.String("client-id")
	redirectURI := cmd.String("redirect-uri")

	if _, err := os.Stat(path); err == nil {
		if !cmd.Bool("force") {
			return fmt.Errorf("%w: config file already exists at %s (use --force to overwrite)", shared.ErrInvalidArgument, path)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing config: %w", err)
		}
	}

	if clientID == "" && redirectURI == "" {
		if err := shared.CreateConfigFile(path); err != nil {
			return err
		}
	} else {
		config := shared.DefaultConfig()
		if clientID != "" {
			config.Credentials.Spotify.ClientID = clientID
		}
		if redirectURI != "" {
			config.Credentials.Spotify.RedirectURI = redirectURI
		}
		if err := shared.SaveConfig(path, config); err != nil {
			return err
		}
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.spotify.client_id and redirect_uri (%s)\n", shared.DefaultConfig().Credentials.Spotify.RedirectURI)
	r.writePlain("2. Run 'arcana setup database'\n")
	r.writePlain("3. Run 'arcana auth login'\n")
	return nil
}
