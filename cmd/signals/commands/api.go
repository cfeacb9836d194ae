package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/optsignals/internal/api"
	"github.com/wonny/optsignals/internal/api/handlers"
	"github.com/wonny/optsignals/internal/scheduler"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST + WebSocket API.

Endpoints:
  GET  /                      - Landing page
  GET  /health                - Health check
  GET  /api/connection        - Broker connection status
  GET  /auth/login            - Kite login URL
  POST /auth/callback         - Exchange request_token
  GET  /api/signal            - Best signal for one symbol
  GET  /api/signals           - Signals for several symbols
  GET  /api/signals/history   - Persisted signals (DATABASE_URL)
  GET  /api/symbols           - Configured symbols
  GET  /api/status            - Service status
  GET  /api/greeks            - Greeks calculator
  GET  /ws/signals            - Live signal stream

Example:
  go run ./cmd/signals api
  go run ./cmd/signals api --port 8080 --scan`,
	RunE: runAPIServer,
}

var (
	apiPort string
	apiScan bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default: PORT or 8000)")
	apiCmd.Flags().BoolVar(&apiScan, "scan", false, "run the background signal scan (same as SCAN_ENABLED=true)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	PrintDoubleSeparator()
	fmt.Println("  Market Signals API Server")
	PrintDoubleSeparator()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Wire dependencies
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	// 2. Background jobs
	var sched *scheduler.Scheduler
	var jobReporter handlers.JobReporter
	if apiScan || a.cfg.Scan.Enabled {
		sched, err = a.newScheduler()
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		jobReporter = sched
	}

	// 3. Create router
	router := api.NewRouter(api.Handlers{
		Signal:      handlers.NewSignalHandler(a.analyzer, historyStore(a), a.log),
		Auth:        handlers.NewAuthHandler(a.kite, a.shared, a.log),
		Status:      handlers.NewStatusHandler(a.analyzer, jobReporter, a.cfg.Scan.Schedule, a.kite.Configured()),
		Stream:      httpHandler(a.hub.ServeWS),
		FrontendURL: a.cfg.FrontendURL,
	}, a.log)

	// 4. Create server
	server := api.New(a.cfg, a.log, router)

	// 5. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s", a.cfg.Port))
	PrintKeyValue("Data source", string(a.analyzer.DataSource()), 12)
	PrintKeyValue("Background", fmt.Sprintf("%t", sched != nil), 12)
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}

// historyStore avoids handing a typed nil to the handler interface
func historyStore(a *app) handlers.HistoryStore {
	if a.history == nil {
		return nil
	}
	return a.history
}
