package shared

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// browserCommand picks the launcher for target on goos.
//
// A non-empty $BROWSER wins on every platform, as it does for xdg-open.
func browserCommand(goos, override, target string) ([]string, error) {
	if override = strings.TrimSpace(override); override != "" {
		return append(strings.Fields(override), target), nil
	}
	switch goos {
	case "darwin":
		return []string{"open", target}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return []string{"xdg-open", target}, nil
	case "windows":
		// cmd /c start reads a quoted URL as the window title.
		return []string{"rundll32", "url.dll,FileProtocolHandler", target}, nil
	default:
		return nil, fmt.Errorf("%w: no browser launcher for %s", ErrServiceUnavailable, goos)
	}
}

// OpenBrowser sends the user to an authorize or callback URL in their browser.
//
// Only absolute http and https URLs are opened. The browser outlives ctx; ctx only
// gates whether the launch happens at all.
func OpenBrowser(ctx context.Context, target string) error {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: refusing to open %q", ErrInvalidArgument, target)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	args, err := browserCommand(runtime.GOOS, os.Getenv("BROWSER"), u.String())
	if err != nil {
		return err
	}
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser with %s: %w", args[0], err)
	}
	go cmd.Wait()
	return nil
}
