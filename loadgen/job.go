package loadgen

import "time"

// JobProducer runs a single item of load.
type JobProducer interface {
	Job(i int) (time.Duration, error)
	RequestCounts() map[string]int
}
