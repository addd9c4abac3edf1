package console

import (
	"os"
	"sync"

	"github.com/papergraph/papergraph/pkg/logger"
	"github.com/papergraph/papergraph/pkg/progress"

	progressbar "github.com/schollz/progressbar/v3"
)

// ConsoleSink renders pipeline progress as a terminal progress bar, one bar
// per stage. Render errors are swallowed; a broken terminal must not stop
// a build.
type ConsoleSink struct {
	mu    sync.Mutex
	stage progress.Stage
	bar   *progressbar.ProgressBar
}

func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{}
}

func (c *ConsoleSink) Update(stage progress.Stage, detail string, percent float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bar == nil || c.stage != stage {
		if c.bar != nil {
			_ = c.bar.Finish()
		}
		c.stage = stage
		c.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(string(stage)),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		)
	}

	if detail != "" {
		c.bar.Describe(string(stage) + ": " + detail)
	}
	_ = c.bar.Set(int(percent))
}

func (c *ConsoleSink) Complete(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bar != nil {
		_ = c.bar.Finish()
		c.bar = nil
	}
	logger.Info("knowledge graph written", "path", path)
}

func (c *ConsoleSink) Error(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bar != nil {
		_ = c.bar.Clear()
	}
	logger.Warn(msg)
}
