package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Background scheduler",
	Long: `Runs the scheduled jobs without the HTTP API.

Jobs:
- signal_scan: analyzes SCAN_SYMBOLS on SCAN_SCHEDULE
- cache_cleanup: evicts stale quote and chain entries every minute
- session_sync: picks up Kite logins shared through Redis (Redis only)

Subcommands:
  start   - start the scheduler
  list    - list registered jobs
  run     - run one job now and print the result

Example:
  go run ./cmd/signals worker start
  go run ./cmd/signals worker run signal_scan`,
}

var (
	workerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		RunE:  runWorkerStart,
	}

	workerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	workerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.AddCommand(workerStartCmd)
	workerCmd.AddCommand(workerListCmd)
	workerCmd.AddCommand(workerRunCmd)
}

func runWorkerStart(cmd *cobra.Command, args []string) error {
	PrintDoubleSeparator()
	fmt.Println("  Market Signals Worker")
	PrintDoubleSeparator()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.newScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// Start scheduler
	sched.Start()

	PrintSuccess("Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.newScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.newScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", jobName)

	result, err := sched.RunJob(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	PrintKeyValue("Duration", result.Duration.String(), 9)
	if !result.Success {
		PrintKeyValue("Error", result.Error, 9)
		return fmt.Errorf("job %s failed", jobName)
	}
	PrintSuccess("Job completed")
	return nil
}
