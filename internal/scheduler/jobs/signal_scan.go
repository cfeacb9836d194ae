package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/optsignals/internal/contracts"
	"github.com/wonny/optsignals/pkg/logger"
)

// Analyzer is the part of the analyzer service the scan needs
type Analyzer interface {
	AnalyzeMany(ctx context.Context, names []string, th contracts.Thresholds, count int) ([]*contracts.Signal, error)
	DefaultThresholds() contracts.Thresholds
}

// SignalScanJob analyzes the configured symbols on every tick. Emitted
// signals reach subscribers through the analyzer's publisher.
type SignalScanJob struct {
	analyzer Analyzer
	symbols  []string
	schedule string
	logger   *logger.Logger
}

// NewSignalScanJob creates a scan job
func NewSignalScanJob(analyzer Analyzer, symbols []string, schedule string, log *logger.Logger) *SignalScanJob {
	if log == nil {
		log = logger.NewNop()
	}
	return &SignalScanJob{
		analyzer: analyzer,
		symbols:  symbols,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *SignalScanJob) Name() string {
	return "signal_scan"
}

// Schedule returns the configured cron schedule
func (j *SignalScanJob) Schedule() string {
	return j.schedule
}

// Run scans every symbol once with the default thresholds
func (j *SignalScanJob) Run(ctx context.Context) error {
	signals, err := j.analyzer.AnalyzeMany(ctx, j.symbols, j.analyzer.DefaultThresholds(), 1)
	if err != nil {
		return fmt.Errorf("signal scan: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols": len(j.symbols),
		"signals": len(signals),
	}).Info("Signal scan completed")

	return nil
}
