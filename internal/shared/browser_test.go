package shared

import (
	"context"
	"errors"
	"testing"
)

func TestBrowser(t *testing.T) {
	const authorize = "https://accounts.spotify.com/authorize?client_id=abc&code_challenge_method=S256"

	t.Run("Launcher Per Platform", func(t *testing.T) {
		tests := []struct {
			goos     string
			override string
			want     []string
		}{
			{goos: "darwin", want: []string{"open", authorize}},
			{goos: "linux", want: []string{"xdg-open", authorize}},
			{goos: "freebsd", want: []string{"xdg-open", authorize}},
			{goos: "windows", want: []string{"rundll32", "url.dll,FileProtocolHandler", authorize}},
			{goos: "linux", override: "firefox --new-tab", want: []string{"firefox", "--new-tab", authorize}},
			{goos: "plan9", override: "  lynx ", want: []string{"lynx", authorize}},
		}

		for _, tt := range tests {
			t.Run(tt.goos+"/"+tt.override, func(t *testing.T) {
				got, err := browserCommand(tt.goos, tt.override, authorize)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(got) != len(tt.want) {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
				for i := range tt.want {
					if got[i] != tt.want[i] {
						t.Errorf("expected %v, got %v", tt.want, got)
					}
				}
			})
		}
	})

	t.Run("Unknown Platform", func(t *testing.T) {
		if _, err := browserCommand("plan9", "", authorize); !errors.Is(err, ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Refuses Non Web Targets", func(t *testing.T) {
		targets := []string{"", "/callback?code=c", "file:///etc/passwd", "javascript:alert(1)", "https://"}

		for _, target := range targets {
			if err := OpenBrowser(context.Background(), target); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("%q: expected ErrInvalidArgument, got %v", target, err)
			}
		}
	})

	t.Run("Canceled Context Skips Launch", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := OpenBrowser(ctx, authorize); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
