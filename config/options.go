package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/pagopa/anonymizer-plt/loadgen"
)

// TestOptions describes run options selected with TEST_TYPE.
//
// Document follows k6 options format, only a subset is interpreted.
type TestOptions struct {
	VUs        int           `json:"vus"`
	Iterations int           `json:"iterations"`
	Duration   time.Duration `json:"-"`
	RPS        int           `json:"rps"`

	Raw map[string]interface{} `json:"-"`
}

// ParseOptions decodes run options.
func ParseOptions(data []byte) (TestOptions, error) {
	var (
		o   TestOptions
		aux struct {
			Duration string `json:"duration"`
		}
	)

	if err := json.Unmarshal(data, &o); err != nil {
		return o, fmt.Errorf("failed to decode: %w", err)
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return o, fmt.Errorf("failed to decode duration: %w", err)
	}

	if err := json.Unmarshal(data, &o.Raw); err != nil {
		return o, fmt.Errorf("failed to decode: %w", err)
	}

	if aux.Duration != "" {
		d, err := time.ParseDuration(aux.Duration)
		if err != nil {
			return o, fmt.Errorf("invalid duration %q: %w", aux.Duration, err)
		}

		o.Duration = d
	}

	if o.VUs < 0 || o.Iterations < 0 || o.RPS < 0 || o.Duration < 0 {
		return o, errors.New("negative values are not allowed")
	}

	return o, nil
}

// Apply fills load flags that were left unset.
func (o TestOptions) Apply(lf *loadgen.Flags) {
	if lf.Concurrency == 0 {
		lf.Concurrency = o.VUs
	}

	if lf.Number == 0 {
		lf.Number = o.Iterations
	}

	if lf.Duration == 0 {
		lf.Duration = o.Duration
	}

	if lf.RateLimit == 0 {
		lf.RateLimit = o.RPS
	}
}
