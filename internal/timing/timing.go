// Package timing formats job durations for the worker logs.
package timing

import (
	"fmt"
	"time"

	"github.com/OFFIS-RIT/coursegraph/pkg/ai"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"
)

// Clock renders d as hh:mm:ss. Hours are not wrapped at 24.
func Clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// LogJob logs how long a job took since start.
func LogJob(jobType string, start time.Time) {
	logger.Info("[Timing] Processing time", "job", jobType, "duration", Clock(time.Since(start)))
}

// LogAIMetrics logs the token usage a client accumulated during a job.
func LogAIMetrics(m ai.ModelMetrics) {
	logger.Info("[Timing] AI metrics",
		"requests", m.Requests,
		"input_tokens", m.InputTokens,
		"output_tokens", m.OutputTokens,
		"total_tokens", m.TotalTokens,
		"tokens_per_second", m.TokenPerSecond,
		"duration", Clock(time.Duration(m.DurationMs)*time.Millisecond),
	)
}
