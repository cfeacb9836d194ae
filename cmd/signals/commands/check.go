package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/optsignals/pkg/config"
	"github.com/wonny/optsignals/pkg/database"
	"github.com/wonny/optsignals/pkg/redis"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check external dependencies",
	Long: `Verifies the configured dependencies and prints their status.

이 명령어는:
- config 로드 및 검증
- PostgreSQL 연결 + Pool 통계 (DATABASE_URL 설정 시)
- Redis Ping (REDIS_ENABLED=true 시)
- Kite API key / 세션 상태

Example:
  go run ./cmd/signals check`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	PrintDoubleSeparator()
	fmt.Println("  Dependency Check")
	PrintDoubleSeparator()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}
	PrintSuccess(fmt.Sprintf("Config loaded (ENV: %s)", cfg.Env))

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	failed := 0

	// PostgreSQL
	PrintSeparator()
	if !cfg.Database.Enabled() {
		PrintInfo("PostgreSQL disabled (DATABASE_URL not set): signal history off")
	} else if err := checkDatabase(ctx, cfg.Database); err != nil {
		fmt.Printf("❌ PostgreSQL: %v\n", err)
		failed++
	}

	// Redis
	PrintSeparator()
	if !cfg.Redis.Enabled {
		PrintInfo("Redis disabled: in-memory cache only")
	} else {
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			fmt.Printf("❌ Redis: %v\n", err)
			failed++
		} else {
			PrintSuccess(fmt.Sprintf("Redis reachable at %s:%s", cfg.Redis.Host, cfg.Redis.Port))
			_ = client.Close()
		}
	}

	// Kite
	PrintSeparator()
	if cfg.Kite.APIKey == "" || cfg.Kite.APISecret == "" {
		PrintWarning("Kite credentials missing: signals will use SIMULATED data")
	} else {
		PrintSuccess("Kite API key configured")
		PrintKeyValue("Base URL", cfg.Kite.BaseURL, 10)
		PrintKeyValue("Rate", fmt.Sprintf("%d req/s", cfg.Kite.RateLimit), 10)
	}

	if failed > 0 {
		return fmt.Errorf("%d dependency check(s) failed", failed)
	}
	fmt.Println()
	PrintSuccess("All checks passed")
	return nil
}

func checkDatabase(ctx context.Context, cfg config.DatabaseConfig) error {
	PrintKeyValue("Database", maskPassword(cfg.URL), 10)

	db, err := database.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	PrintSuccess(fmt.Sprintf("PostgreSQL healthy (%v)", status.ResponseTime))
	PrintKeyValue("Max", fmt.Sprintf("%d", status.Stats.MaxConns), 10)
	PrintKeyValue("Total", fmt.Sprintf("%d", status.Stats.TotalConns), 10)
	PrintKeyValue("Idle", fmt.Sprintf("%d", status.Stats.IdleConns), 10)
	return nil
}

// maskPassword hides the password of a connection URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
