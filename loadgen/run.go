// Package loadgen runs jobs concurrently and collects latency statistics.
package loadgen

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/vearutop/dynhist-go"
	"golang.org/x/time/rate"
)

type stats struct {
	start time.Time

	roundTripHist    dynhist.Collector
	roundTripRolling dynhist.Collector
	roundTripPrecise dynhist.Collector

	slow   int64
	failed int64
}

func newStats() *stats {
	return &stats{
		start:            time.Now(),
		roundTripHist:    dynhist.Collector{BucketsLimit: 10, WeightFunc: dynhist.LatencyWidth},
		roundTripRolling: dynhist.Collector{BucketsLimit: 5, WeightFunc: dynhist.LatencyWidth},
		roundTripPrecise: dynhist.Collector{BucketsLimit: 100, WeightFunc: dynhist.LatencyWidth},
	}
}

func (s *stats) add(elapsed, slowResponse time.Duration) {
	ms := elapsed.Seconds() * 1000
	if elapsed >= slowResponse {
		atomic.AddInt64(&s.slow, 1)
	}

	s.roundTripHist.Add(ms)
	s.roundTripPrecise.Add(ms)
	s.roundTripRolling.Add(ms)
}

// Run starts load generation with job producer and blocks until all jobs are finished.
func Run(lf Flags, jobProducer JobProducer) error {
	if jobProducer == nil {
		return errors.New("job producer is required")
	}

	lf.Prepare()

	st := newStats()

	limiter := make(chan struct{}, lf.Concurrency) // Number of simultaneous jobs.

	n := lf.Number
	if n <= 0 {
		n = math.MaxInt64
	}

	dur := lf.Duration
	if dur == 0 {
		dur = 1000 * time.Hour
	}

	var rl *rate.Limiter
	if lf.RateLimit > 0 {
		rl = rate.NewLimiter(rate.Limit(lf.RateLimit), lf.Concurrency)
	}

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, syscall.SIGTERM, os.Interrupt)

	defer signal.Stop(exit)

	done := int32(0)
	stopped := make(chan struct{})

	var d *dashboard

	if lf.LiveUI {
		var err error

		if d, err = newDashboard(st, jobProducer); err != nil {
			return err
		}

		go d.pollEvents(exit)
		go d.loop(stopped)
	}

	go func() {
		select {
		case <-exit:
			atomic.StoreInt32(&done, 1)
		case <-stopped:
		}
	}()

	for i := 0; i < n; i++ {
		if rl != nil {
			if err := rl.Wait(context.Background()); err != nil {
				log.Println(err.Error())
			}
		}

		limiter <- struct{}{} // Reserve limiter slot.

		go func() {
			defer func() {
				<-limiter // Free limiter slot.
			}()

			elapsed, err := jobProducer.Job(i)
			if err != nil {
				atomic.AddInt64(&st.failed, 1)
				log.Println(err.Error())

				return
			}

			st.add(elapsed, lf.SlowResponse)
		}()

		if time.Since(st.start) > dur || atomic.LoadInt32(&done) == 1 {
			break
		}
	}

	// Wait for goroutines to finish by filling full channel.
	for i := 0; i < cap(limiter); i++ {
		limiter <- struct{}{}
	}

	close(stopped)

	if d != nil {
		d.close()
	}

	st.print(lf)

	return nil
}

func (s *stats) print(lf Flags) {
	out := lf.Output

	fmt.Fprintln(out, "Requests per second:", fmt.Sprintf("%.2f", float64(s.roundTripHist.Count)/time.Since(s.start).Seconds()))
	fmt.Fprintln(out, "Successful requests:", s.roundTripHist.Count)
	fmt.Fprintln(out, "Failed requests:", atomic.LoadInt64(&s.failed))

	if s.roundTripHist.Count == 0 {
		return
	}

	fmt.Fprintln(out, "Request latency distribution in ms:")
	fmt.Fprintln(out, s.roundTripHist.String())
	fmt.Fprintln(out, "Request latency percentiles:")
	fmt.Fprintf(out, "99%%: %fms\n", s.roundTripPrecise.Percentile(99))
	fmt.Fprintf(out, "95%%: %fms\n", s.roundTripPrecise.Percentile(95))
	fmt.Fprintf(out, "90%%: %fms\n", s.roundTripPrecise.Percentile(90))
	fmt.Fprintf(out, "50%%: %fms\n\n", s.roundTripPrecise.Percentile(50))
	fmt.Fprintln(out, "Requests with latency more than "+lf.SlowResponse.String()+":", atomic.LoadInt64(&s.slow))
}
