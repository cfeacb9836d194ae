package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/optsignals/internal/contracts"
)

// schemaDDL creates the signal history table
const schemaDDL = `
	CREATE SCHEMA IF NOT EXISTS signals;

	CREATE TABLE IF NOT EXISTS signals.option_signals (
		id           BIGSERIAL PRIMARY KEY,
		symbol       TEXT             NOT NULL,
		generated_at TIMESTAMPTZ      NOT NULL,
		option_type  TEXT             NOT NULL,
		strike       DOUBLE PRECISION NOT NULL,
		delta        DOUBLE PRECISION NOT NULL,
		gamma        DOUBLE PRECISION NOT NULL,
		theta        DOUBLE PRECISION NOT NULL,
		vega         DOUBLE PRECISION NOT NULL,
		oi           BIGINT           NOT NULL,
		iv           DOUBLE PRECISION NOT NULL,
		ltp_option   DOUBLE PRECISION NOT NULL,
		ltp          DOUBLE PRECISION NOT NULL,
		side         TEXT             NOT NULL,
		confidence   DOUBLE PRECISION NOT NULL,
		data_source  TEXT             NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_option_signals_symbol_time
		ON signals.option_signals (symbol, generated_at DESC);
`

// MaxHistoryLimit caps Recent queries
const MaxHistoryLimit = 500

// querier is satisfied by *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// SignalRepository stores emitted option signals
// ⭐ SSOT: Signal 데이터 저장/조회는 여기서만
type SignalRepository struct {
	db querier
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(pool *pgxpool.Pool) *SignalRepository {
	return &SignalRepository{db: pool}
}

// EnsureSchema creates the table and index when missing
func (r *SignalRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure signal schema: %w", err)
	}
	return nil
}

// Save inserts one signal
func (r *SignalRepository) Save(ctx context.Context, s *contracts.Signal) error {
	query := `
		INSERT INTO signals.option_signals (
			symbol, generated_at, option_type, strike,
			delta, gamma, theta, vega,
			oi, iv, ltp_option, ltp,
			side, confidence, data_source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	generatedAt := s.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, query,
		s.Symbol, generatedAt, string(s.OptionType), s.Strike,
		s.Delta, s.Gamma, s.Theta, s.Vega,
		s.OpenInterest, s.ImpliedVolatility, s.OptionLastPrice, s.Spot,
		s.Side, s.Confidence, string(s.DataSource),
	)
	if err != nil {
		return fmt.Errorf("failed to insert signal: %w", err)
	}
	return nil
}

// Recent returns the newest signals, optionally filtered by symbol
func (r *SignalRepository) Recent(ctx context.Context, symbol string, limit int) ([]*contracts.Signal, error) {
	limit = ClampLimit(limit)

	query := `
		SELECT
			symbol, generated_at, option_type, strike,
			delta, gamma, theta, vega,
			oi, iv, ltp_option, ltp,
			side, confidence, data_source
		FROM signals.option_signals
		WHERE ($1 = '' OR symbol = $1)
		ORDER BY generated_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var out []*contracts.Signal
	for rows.Next() {
		var (
			s          contracts.Signal
			optionType string
			source     string
		)
		err := rows.Scan(
			&s.Symbol, &s.GeneratedAt, &optionType, &s.Strike,
			&s.Delta, &s.Gamma, &s.Theta, &s.Vega,
			&s.OpenInterest, &s.ImpliedVolatility, &s.OptionLastPrice, &s.Spot,
			&s.Side, &s.Confidence, &source,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		s.OptionType = contracts.OptionSide(optionType)
		s.DataSource = contracts.DataSource(source)
		s.GeneratedAt = s.GeneratedAt.UTC()
		s.Timestamp = s.GeneratedAt.Format("15:04:05")
		out = append(out, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// ClampLimit keeps a history limit within [1, MaxHistoryLimit]; 0 means 50
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	}
	return limit
}
