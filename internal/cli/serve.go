package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/amterp/postdeck/internal/api"
	"github.com/amterp/postdeck/internal/session"
	"github.com/amterp/ra"
)

const shutdownTimeout = 5 * time.Second

func registerServe(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("serve")
	cmd.SetDescription("Start web interface")

	ctx.ServePort, _ = ra.NewInt("port").
		SetOptional(true).
		SetDefault(0).
		SetShort("p").
		SetFlagOnly(true).
		SetUsage("Port to listen on (default from config; will try incrementally if in use)").
		Register(cmd)

	ctx.ServeNoOpen, _ = ra.NewBool("no-open").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Don't open browser automatically").
		Register(cmd)

	ctx.ServeWatch, _ = ra.NewBool("watch").
		SetShort("w").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Reseed every session when the seed file changes").
		Register(cmd)

	ctx.ServeUsed, _ = parent.RegisterCmd(cmd)
}

func runServe(seedFlag string, port int, noOpen, watch bool) {
	app, err := NewApp()
	if err != nil {
		Fatal(err)
	}
	log := app.Logger

	seedPath := app.SeedPath(seedFlag)
	ds, err := app.LoadSeed(seedFlag)
	if err != nil {
		Fatal(err)
	}

	watch = watch || app.Config.Seed.Watch
	if watch && seedPath == "" {
		PrintWarning("--watch needs a seed file (--seed or seed.path); the built-in dataset never changes")
		watch = false
	}

	hub := api.NewWebSocketHub(log)
	manager := session.NewManager(ds, session.ManagerOptions{
		Delay:  app.DebounceDelay(),
		TTL:    app.SessionTTL(),
		Notify: hub.Notify,
		Logger: log,
	})
	handler := api.NewHandler(manager, hub, app.DebounceDelay(), log)

	if port <= 0 {
		port = app.Config.Server.Port
	}
	actualPort := findAvailablePort(port)

	server := api.NewServer(handler, api.ServerConfig{
		Port:      actualPort,
		SeedPath:  seedPath,
		WatchSeed: watch,
	}, log)

	url := fmt.Sprintf("http://localhost:%d", actualPort)
	PrintSuccess("postdeck running at %s", RenderURL(url))
	if seedPath != "" {
		PrintInfo("Seed: %s%s", seedPath, watchSuffix(watch))
	}
	fmt.Println(RenderMuted("Press Ctrl+C to stop"))

	if !noOpen && app.Config.Server.OpenBrowser {
		openBrowser(url)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			Fatal(err)
		}
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			Fatal(err)
		}
	}
}

func watchSuffix(watch bool) string {
	if watch {
		return RenderMuted(" (watching)")
	}
	return ""
}

// findAvailablePort tries ports starting from startPort until it finds one that's available.
func findAvailablePort(startPort int) int {
	maxAttempts := 100
	for i := 0; i < maxAttempts; i++ {
		port := startPort + i
		if isPortAvailable(port) {
			return port
		}
	}
	// Let the server report the bind error.
	return startPort
}

func isPortAvailable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	}
	if cmd != nil {
		_ = cmd.Start()
	}
}
