package progress

// Stage names the pipeline phase a progress update belongs to.
type Stage string

const (
	StageIngesting  Stage = "ingesting"
	StageExtracting Stage = "extracting"
	StageBuilding   Stage = "building"
)

// Sink receives best-effort progress updates from the pipeline. A sink must
// never block the pipeline; slow consumers drop updates rather than stall
// the build.
type Sink interface {
	// Update reports progress within a stage. Percent is in [0, 100].
	Update(stage Stage, detail string, percent float64)
	// Complete signals that the build finished and the snapshot was written
	// to path.
	Complete(path string)
	// Error reports a non-fatal problem worth surfacing, such as a skipped
	// document.
	Error(msg string)
}

// Nop is a Sink that discards all updates.
type Nop struct{}

func (Nop) Update(Stage, string, float64) {}
func (Nop) Complete(string)               {}
func (Nop) Error(string)                  {}

// Multi fans updates out to several sinks.
type Multi []Sink

func (m Multi) Update(stage Stage, detail string, percent float64) {
	for _, s := range m {
		s.Update(stage, detail, percent)
	}
}

func (m Multi) Complete(path string) {
	for _, s := range m {
		s.Complete(path)
	}
}

func (m Multi) Error(msg string) {
	for _, s := range m {
		s.Error(msg)
	}
}
