package repos

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/optsignals/internal/contracts"
	"github.com/wonny/optsignals/pkg/config"
	"github.com/wonny/optsignals/pkg/database"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 50},
		{-3, 50},
		{1, 1},
		{120, 120},
		{10000, MaxHistoryLimit},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampLimit(tt.in))
	}
}

func TestSignalRepository_Integration(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := database.New(ctx, config.DatabaseConfig{URL: url, MaxConns: 2})
	require.NoError(t, err)
	defer db.Close()

	repo := NewSignalRepository(db.Pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	symbol := "TEST" + time.Now().Format("150405.000")
	sig := &contracts.Signal{
		Symbol:            symbol,
		GeneratedAt:       time.Date(2024, 1, 15, 4, 0, 0, 0, time.UTC),
		OptionType:        contracts.SideCall,
		Strike:            20000,
		Delta:             0.5253,
		Gamma:             0.000408,
		Theta:             -22.2656,
		Vega:              15.5225,
		OpenInterest:      60000,
		ImpliedVolatility: 0.25,
		OptionLastPrice:   120,
		Spot:              20000,
		Side:              "STRONG BUY CE",
		Confidence:        1,
		DataSource:        contracts.SourceSimulated,
	}
	require.NoError(t, repo.Save(ctx, sig))

	got, err := repo.Recent(ctx, symbol, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "04:00:00", got[0].Timestamp)
	assert.Equal(t, contracts.SideCall, got[0].OptionType)
	assert.Equal(t, int64(60000), got[0].OpenInterest)
	assert.Equal(t, contracts.SourceSimulated, got[0].DataSource)
}
