package main

import (
	"context"

	"github.com/desertthunder/arcana/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the token exchange endpoint and playlist proxy until interrupted.
//
// When the token store opens, /login and /callback are mounted too so a browser can log in
// against this process.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	opts := server.Options{
		Config:     r.config,
		Logger:     r.logger,
		HTTPClient: r.httpClient,
		Origins:    cmd.StringSlice("origin"),
	}

	if o, err := r.orchestrator(); err != nil {
		r.logger.Warn("login routes disabled", "error", err)
	} else {
		callbacks := server.NewCallbackHandler(o, r.logger)
		opts.Callback = callbacks
		opts.Login = o
		go r.logCallbacks(ctx, callbacks)
	}

	r.writePlain("→ Serving arcana API on http://%s\n", addr)
	return server.Serve(ctx, addr, server.New(opts), r.logger)
}

func (r *Runner) logCallbacks(ctx context.Context, callbacks *server.CallbackHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case result := <-callbacks.Result():
			if result.Err == nil {
				r.logger.Info("browser login completed")
			}
		}
	}
}
