package report

import (
	"fmt"
	"io"
)

// CheckStat is a pass/fail tally of a named check.
type CheckStat struct {
	Name   string
	Passes int
	Fails  int
}

// Rate returns share of passed evaluations, 0 if check was never evaluated.
func (c CheckStat) Rate() float64 {
	total := c.Passes + c.Fails
	if total == 0 {
		return 0
	}

	return float64(c.Passes) / float64(total)
}

// PrintChecks renders check results in order.
func PrintChecks(w io.Writer, checks []CheckStat) {
	if len(checks) == 0 {
		return
	}

	fmt.Fprintln(w, "Checks:")

	for _, c := range checks {
		mark := "✓"
		if c.Fails > 0 {
			mark = "✗"
		}

		fmt.Fprintf(w, "  %s %s\n", mark, c.Name)

		if c.Fails > 0 {
			fmt.Fprintf(w, "   ↳  %.0f%% — ✓ %d / ✗ %d\n", c.Rate()*100, c.Passes, c.Fails)
		}
	}

	fmt.Fprintln(w)
}
