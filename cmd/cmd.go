// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/arcana/internal/formatter"
	"github.com/urfave/cli/v3"
)

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Roll back the latest migration first, discarding stored tokens",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write config.toml from the built-in template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "client-id",
						Usage:   "Spotify client ID to write into the config",
						Sources: cli.EnvVars("SPOTIFY_CLIENT_ID"),
					},
					&cli.StringFlag{
						Name:  "redirect-uri",
						Usage: "Redirect URI registered with Spotify",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing config file",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles the Spotify login lifecycle
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with Spotify (PKCE) through a local callback server",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: loginTimeout,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorize URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show login state and token expiry",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:  "token",
				Usage: "Print a valid access token, refreshing it when needed",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "refresh",
						Usage: "Force a refresh even when the stored token is valid",
					},
				},
				Action: r.AuthToken,
			},
			{
				Name:   "logout",
				Usage:  "Forget stored tokens and any pending login",
				Action: r.AuthLogout,
			},
		},
	}
}

// cardsCommand handles deck operations
func cardsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "cards",
		Aliases: []string{"deck"},
		Usage:   "Browse the tarot deck",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the cards in the deck",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.CardsList,
			},
			{
				Name:  "open",
				Usage: "Open a card and print its playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "key",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "range",
						Usage: "Top songs time range: short, medium or long",
						Value: "short",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, markdown, csv or json",
						Value:   formatter.FormatText,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead of stdout",
					},
				},
				Action: r.CardsOpen,
			},
			{
				Name:  "export",
				Usage: "Export a card to a Markdown directory with its cover image",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "key",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "range",
						Usage: "Top songs time range: short, medium or long",
						Value: "short",
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Output directory (default: the card key)",
					},
				},
				Action: r.CardsExport,
			},
		},
	}
}

// playerCommand handles playback on a Spotify Connect device
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "player",
		Usage: "Control playback on a Spotify Connect device",
		Commands: []*cli.Command{
			{
				Name:  "devices",
				Usage: "List available Connect devices",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlayerDevices,
			},
			{
				Name:  "play",
				Usage: "Play a track, or toggle pause when it is already current",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "uri",
					},
				},
				Action: r.PlayerPlay,
			},
			{
				Name:   "pause",
				Usage:  "Pause the current track",
				Action: r.PlayerPause,
			},
			{
				Name:  "restart",
				Usage: "Play a track from the beginning",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "uri",
					},
				},
				Action: r.PlayerRestart,
			},
			{
				Name:  "seek",
				Usage: "Seek the current track",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "ms",
					},
				},
				Action: r.PlayerSeek,
			},
		},
	}
}

// serveCommand runs the token exchange endpoint and playlist proxy.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the token exchange endpoint, playlist proxy and login routes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port)",
			},
			&cli.StringSliceFlag{
				Name:  "origin",
				Usage: "Allowed CORS origin, repeatable (\"*\" for any)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing and playback.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive tarot deck",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs go while the TUI owns the terminal",
				Value: "./tmp/arcana-tui.log",
			},
		},
		Action: r.TUI,
	}
}
