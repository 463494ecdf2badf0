package linklab

//
// Connect-RTT probe
//

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"syscall"
	"time"

	"github.com/montanaflynn/stats"
)

// ErrNoSamples indicates that the probe collected no usable samples.
var ErrNoSamples = errors.New("linklab: no RTT samples collected")

// RTTProbe estimates the round-trip time towards a TCP endpoint by
// timing connection establishment: the three-way handshake completes
// in one RTT, and so does a refused connection (SYN in, RST back),
// which means you can probe a port nobody listens on.
//
// Run the probe twice to validate a provisioned testbed: once on an
// idle link, where the summary should match the base RTT, and once
// while a blast transfer keeps the queue full, where the summary
// should match [Expectations.FullQueueRTT].
type RTTProbe struct {
	// Dialer is the optional dialer to use (default: [net.Dialer]).
	Dialer Dialer

	// Logger is the optional logger to use.
	Logger Logger

	// Target is the TCP endpoint to probe (e.g., 10.0.1.2:54321).
	Target string

	// Count is the number of samples to collect (default: 10).
	Count int

	// Interval is the pause between samples (default: 1s).
	Interval time.Duration
}

// RTTSummary summarizes the collected samples.
type RTTSummary struct {
	// Samples is the number of collected samples.
	Samples int

	// Min is the minimum sample.
	Min time.Duration

	// Max is the maximum sample.
	Max time.Duration

	// Mean is the mean sample.
	Mean time.Duration

	// Median is the median sample.
	Median time.Duration

	// P95 is the 95th percentile sample.
	P95 time.Duration

	// StdDev is the sample standard deviation.
	StdDev time.Duration
}

// Run collects the samples and returns their summary. This function
// fails with [ErrNoSamples] when every connection attempt failed in a
// way that does not measure the round-trip time.
func (p *RTTProbe) Run(ctx context.Context) (*RTTSummary, error) {
	dialer := p.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	logger := p.Logger
	if logger == nil {
		logger = &NullLogger{}
	}
	count := p.Count
	if count <= 0 {
		count = defaultProbeCount
	}
	interval := p.Interval
	if interval <= 0 {
		interval = defaultProbeInterval
	}

	var samples []time.Duration
	for idx := 0; idx < count; idx++ {
		start := time.Now()
		conn, err := dialer.DialContext(ctx, "tcp", p.Target)
		elapsed := time.Since(start)
		switch {
		case err == nil:
			conn.Close()
			samples = append(samples, elapsed)
		case errors.Is(err, syscall.ECONNREFUSED):
			// the refusal took one round trip, which is precisely
			// what we are trying to measure
			samples = append(samples, elapsed)
		case ctx.Err() != nil:
			return summarizeRTT(samples)
		default:
			logger.Warnf("linklab: RTTProbe: %s", err.Error())
		}

		if idx < count-1 {
			timer := time.NewTimer(interval)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return summarizeRTT(samples)
			}
		}
	}
	return summarizeRTT(samples)
}

// summarizeRTT computes the [RTTSummary] of the given samples.
func summarizeRTT(samples []time.Duration) (*RTTSummary, error) {
	if len(samples) <= 0 {
		return nil, ErrNoSamples
	}
	seconds := make([]float64, 0, len(samples))
	for _, sample := range samples {
		seconds = append(seconds, sample.Seconds())
	}
	minimum := Must1(stats.Min(seconds))
	maximum := Must1(stats.Max(seconds))
	mean := Must1(stats.Mean(seconds))
	median := Must1(stats.Median(seconds))
	p95 := Must1(stats.Percentile(seconds, 95))
	var stddev float64
	if len(seconds) > 1 {
		stddev = Must1(stats.StandardDeviationSample(seconds))
	}
	return &RTTSummary{
		Samples: len(samples),
		Min:     secondsToDuration(minimum),
		Max:     secondsToDuration(maximum),
		Mean:    secondsToDuration(mean),
		Median:  secondsToDuration(median),
		P95:     secondsToDuration(p95),
		StdDev:  secondsToDuration(stddev),
	}, nil
}

// secondsToDuration converts seconds to a rounded [time.Duration].
func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

// String formats the summary for logging.
func (s *RTTSummary) String() string {
	return fmt.Sprintf(
		"samples=%d min=%s max=%s mean=%s median=%s p95=%s stddev=%s",
		s.Samples, s.Min, s.Max, s.Mean, s.Median, s.P95, s.StdDev,
	)
}
