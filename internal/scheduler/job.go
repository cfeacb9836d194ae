package scheduler

import (
	"context"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron schedule expression (seconds field first)
	// Examples: "*/10 * * * * *" (every 10 seconds)
	//           "@every 1m", "@hourly"
	Schedule() string
}

// JobResult represents the result of a job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// maxHistory is how many results are kept per job
const maxHistory = 100

// runHistory keeps the most recent results of one job, oldest first
type runHistory struct {
	results []JobResult
}

// add appends a result, dropping the oldest beyond maxHistory
func (h *runHistory) add(result JobResult) {
	h.results = append(h.results, result)
	if len(h.results) > maxHistory {
		h.results = h.results[len(h.results)-maxHistory:]
	}
}

// snapshot returns a copy safe to hand out
func (h *runHistory) snapshot() []JobResult {
	out := make([]JobResult, len(h.results))
	copy(out, h.results)
	return out
}

// summarize folds the retained results into stats for one job
func (h *runHistory) summarize(name, schedule string) JobStats {
	st := JobStats{
		JobName:   name,
		Schedule:  schedule,
		TotalRuns: len(h.results),
	}

	for i := range h.results {
		r := h.results[i]
		st.LastRun = &r.StartTime
		if r.Success {
			st.SuccessCount++
			st.LastSuccess = &r.StartTime
		} else {
			st.FailureCount++
			st.LastFailure = &r.StartTime
		}
	}

	if st.TotalRuns > 0 {
		st.SuccessRate = float64(st.SuccessCount) / float64(st.TotalRuns)
	}
	return st
}
