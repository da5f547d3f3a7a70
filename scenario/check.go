package scenario

import (
	"sync"

	"github.com/pagopa/anonymizer-plt/report"
)

// Checks records independent pass/fail outcomes by name.
type Checks struct {
	mu    sync.Mutex
	order []string
	stats map[string]*report.CheckStat
}

// NewChecks creates recorder with names registered in report order.
func NewChecks(names ...string) *Checks {
	c := &Checks{stats: make(map[string]*report.CheckStat, len(names))}

	for _, n := range names {
		c.stat(n)
	}

	return c
}

func (c *Checks) stat(name string) *report.CheckStat {
	s, ok := c.stats[name]
	if !ok {
		s = &report.CheckStat{Name: name}
		c.stats[name] = s
		c.order = append(c.order, name)
	}

	return s
}

// Record adds outcome of a check evaluation and returns it.
func (c *Checks) Record(name string, ok bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stat(name)
	if ok {
		s.Passes++
	} else {
		s.Fails++
	}

	return ok
}

// Stats returns snapshot of check outcomes.
func (c *Checks) Stats() []report.CheckStat {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := make([]report.CheckStat, 0, len(c.order))
	for _, n := range c.order {
		res = append(res, *c.stats[n])
	}

	return res
}

// Failed returns total number of failed evaluations.
func (c *Checks) Failed() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, s := range c.stats {
		total += s.Fails
	}

	return total
}
