package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/arcana/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlayerDevices lists the Connect devices visible to the account.
func (r *Runner) PlayerDevices(ctx context.Context, cmd *cli.Command) error {
	o, err := r.orchestrator()
	if err != nil {
		return err
	}
	token, err := r.accessToken(o)(ctx)
	if err != nil {
		return err
	}

	devices, err := r.playbackService().Devices(ctx, token)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(devices, true)
	}

	if len(devices) == 0 {
		return r.writePlain("No devices found. Open Spotify on a phone, desktop or speaker.\n")
	}

	target := r.config.Player.DeviceName
	r.writePlain("Found %d devices:\n\n", len(devices))
	for _, d := range devices {
		marker := " "
		if d.Active {
			marker = "●"
		}
		r.writePlain("%s %s (%s)\n", marker, d.Name, d.Type)
		r.writePlain("  ID: %s\n", d.ID)
		if d.Restricted {
			r.writePlain("  Restricted: cannot be controlled\n")
		}
		if target != "" && d.Name == target {
			r.writePlain("  Configured as the arcana player\n")
		}
	}
	return nil
}

// PlayerPlay plays a track on the configured device, toggling pause when it is already current.
func (r *Runner) PlayerPlay(ctx context.Context, cmd *cli.Command) error {
	uri, err := trackURI(cmd)
	if err != nil {
		return err
	}

	c, err := r.startPlayer(ctx)
	if err != nil {
		return err
	}
	defer c.Teardown()

	if err := c.Play(ctx, uri); err != nil {
		return err
	}

	if c.Session().IsPlaying(uri) {
		return r.writePlain("▶ Playing %s\n", uri)
	}
	return r.writePlain("❚❚ Paused %s\n", uri)
}

// PlayerPause pauses the current track.
func (r *Runner) PlayerPause(ctx context.Context, cmd *cli.Command) error {
	c, err := r.startPlayer(ctx)
	if err != nil {
		return err
	}
	defer c.Teardown()

	if err := c.Pause(ctx); err != nil {
		return err
	}
	return r.writePlain("❚❚ Paused\n")
}

// PlayerRestart plays a track from the beginning.
func (r *Runner) PlayerRestart(ctx context.Context, cmd *cli.Command) error {
	uri, err := trackURI(cmd)
	if err != nil {
		return err
	}

	c, err := r.startPlayer(ctx)
	if err != nil {
		return err
	}
	defer c.Teardown()

	if err := c.Restart(ctx, uri); err != nil {
		return err
	}
	return r.writePlain("↺ Restarted %s\n", uri)
}

// PlayerSeek moves the current track to a position in milliseconds.
func (r *Runner) PlayerSeek(ctx context.Context, cmd *cli.Command) error {
	ms, err := strconv.Atoi(cmd.StringArg("ms"))
	if err != nil || ms < 0 {
		return fmt.Errorf("%w: position must be a non-negative number of milliseconds", shared.ErrInvalidArgument)
	}

	c, err := r.startPlayer(ctx)
	if err != nil {
		return err
	}
	defer c.Teardown()

	if err := c.Seek(ctx, ms); err != nil {
		return err
	}
	return r.writePlain("→ Seeked to %dms\n", ms)
}

func trackURI(cmd *cli.Command) (string, error) {
	uri := cmd.StringArg("uri")
	if uri == "" {
		return "", fmt.Errorf("%w: track uri", shared.ErrMissingArgument)
	}
	return uri, nil
}
