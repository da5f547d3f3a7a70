package loadgen

import (
	"io"
	"os"
	"time"
)

// Flags control load testing.
type Flags struct {
	Number       int
	Concurrency  int
	RateLimit    int
	Duration     time.Duration
	SlowResponse time.Duration
	LiveUI       bool

	Output io.Writer
}

// Prepare sets conditional defaults.
func (lf *Flags) Prepare() {
	if lf.Number == 0 && lf.Duration == 0 {
		lf.Number = 1000
		lf.Duration = time.Minute
	}

	if lf.Concurrency <= 0 {
		lf.Concurrency = 50
	}

	if lf.SlowResponse == 0 {
		lf.SlowResponse = time.Second
	}

	if lf.Output == nil {
		lf.Output = os.Stdout
	}
}
