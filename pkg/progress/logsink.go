package progress

import "github.com/papergraph/papergraph/pkg/logger"

// LogSink reports progress through the structured logger. It throttles
// Update calls to whole-percent steps so log output stays readable.
type LogSink struct {
	lastStage   Stage
	lastPercent int
}

func NewLogSink() *LogSink {
	return &LogSink{lastPercent: -1}
}

func (l *LogSink) Update(stage Stage, detail string, percent float64) {
	step := int(percent)
	if stage == l.lastStage && step == l.lastPercent {
		return
	}
	l.lastStage = stage
	l.lastPercent = step
	logger.Info(string(stage), "detail", detail, "percent", step)
}

func (l *LogSink) Complete(path string) {
	logger.Info("knowledge graph written", "path", path)
}

func (l *LogSink) Error(msg string) {
	logger.Warn(msg)
}
