package renderer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/mcxwatch/config"
)

// Strategy is one way of obtaining a connected browser. Release must free
// everything Launch acquired, including the browser process.
type Strategy struct {
	Name   string
	Launch func(ctx context.Context) (*rod.Browser, func(), error)
}

// DefaultStrategies returns the construction strategies in priority order:
// remote (only when configured), managed, explicit, system.
func DefaultStrategies(cfg config.BrowserConfig) []Strategy {
	var out []Strategy
	if cfg.RemoteURL != "" {
		out = append(out, remoteStrategy(cfg.RemoteURL))
	}
	return append(out,
		managedStrategy(cfg),
		explicitStrategy(cfg),
		systemStrategy(cfg),
	)
}

// remoteStrategy attaches to a browser someone else runs. Release closes our
// connection; the remote process keeps running.
func remoteStrategy(controlURL string) Strategy {
	return Strategy{
		Name: "remote",
		Launch: func(ctx context.Context) (*rod.Browser, func(), error) {
			ws := &cdp.WebSocket{}
			if err := ws.Connect(ctx, controlURL, nil); err != nil {
				return nil, nil, fmt.Errorf("connect to %s: %w", controlURL, err)
			}
			b, release, err := attach(ws, cdp.New().Start(ws), (*rod.Browser).Connect)
			if err != nil {
				return nil, nil, fmt.Errorf("connect to %s: %w", controlURL, err)
			}
			return b, release, nil
		},
	}
}

// attach builds a browser over client. The returned release cancels the
// browser's context and closes conn, so event goroutines started by connect
// exit. conn is also closed when connect fails.
func attach(conn io.Closer, client rod.CDPClient, connect func(*rod.Browser) error) (*rod.Browser, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	b := rod.New().Context(ctx).Client(client)
	release := sync.OnceFunc(func() {
		cancel()
		_ = conn.Close()
	})
	if err := connect(b); err != nil {
		release()
		return nil, nil, err
	}
	return b, release, nil
}

// managedStrategy lets rod's launcher find a browser it manages, downloading
// a pinned build when none is cached.
func managedStrategy(cfg config.BrowserConfig) Strategy {
	return Strategy{
		Name: "managed",
		Launch: func(ctx context.Context) (*rod.Browser, func(), error) {
			return launch(ctx, newLauncher(cfg))
		},
	}
}

// explicitStrategy launches the configured binary, or the first known
// install location that exists.
func explicitStrategy(cfg config.BrowserConfig) Strategy {
	return Strategy{
		Name: "explicit",
		Launch: func(ctx context.Context) (*rod.Browser, func(), error) {
			bin, err := explicitBin(cfg)
			if err != nil {
				return nil, nil, err
			}
			return launch(ctx, newLauncher(cfg).Bin(bin))
		},
	}
}

// systemStrategy uses whatever browser is on PATH, without the leakless
// guard process, which cannot start in some containers.
func systemStrategy(cfg config.BrowserConfig) Strategy {
	return Strategy{
		Name: "system",
		Launch: func(ctx context.Context) (*rod.Browser, func(), error) {
			bin, has := launcher.LookPath()
			if !has {
				return nil, nil, errors.New("no browser on PATH")
			}
			return launch(ctx, newLauncher(cfg).Bin(bin).Leakless(false))
		},
	}
}

var errNoExplicitBin = errors.New("no explicit browser binary configured or installed")

func explicitBin(cfg config.BrowserConfig) (string, error) {
	if cfg.BrowserBin != "" {
		if _, err := os.Stat(cfg.BrowserBin); err != nil {
			return "", fmt.Errorf("browser binary %s: %w", cfg.BrowserBin, err)
		}
		return cfg.BrowserBin, nil
	}
	for _, p := range cfg.CandidateBins {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errNoExplicitBin
}

func newLauncher(cfg config.BrowserConfig) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("window-size"), "1920,1080")
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("no-first-run"))
	return l
}

func launch(ctx context.Context, l *launcher.Launcher) (*rod.Browser, func(), error) {
	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launch: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	release := func() {
		_ = b.Close()
		l.Kill()
		l.Cleanup()
	}
	return b, release, nil
}
