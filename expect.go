package linklab

//
// Experiment expectations
//

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
)

// Expectations predicts what an operator should observe on a
// correctly provisioned testbed. These are validation targets for
// the external measurement tools, not values we enforce.
type Expectations struct {
	// BaseRTT is the round-trip time with an empty queue.
	BaseRTT time.Duration

	// FullQueueRTT is the round-trip time with the bottleneck queue
	// full: the base RTT plus the time needed to drain the queue at
	// the bottleneck rate. With a one-BDP queue this is twice the
	// base RTT.
	FullQueueRTT time.Duration

	// CwndPeakPackets is the expected congestion window, in packets,
	// right before a loss: the in-flight BDP plus the full queue,
	// about twice the BDP with a one-BDP queue.
	CwndPeakPackets int64

	// CwndTroughPackets is the expected congestion window right
	// after the multiplicative decrease, about one BDP.
	CwndTroughPackets int64

	// SteadyRateBitsPerSec is the expected steady-state throughput,
	// i.e., the bottleneck rate.
	SteadyRateBitsPerSec float64
}

// PredictObservables derives the [Expectations] for an experiment
// provisioned according to the given sizing.
func PredictObservables(sizing *Sizing) *Expectations {
	queueDrain := time.Duration(math.Round(
		float64(sizing.QueueBytes*8) / sizing.RateBitsPerSec * float64(time.Second),
	))
	peak := sizing.BDPPackets + sizing.QueuePackets
	return &Expectations{
		BaseRTT:              sizing.RTT,
		FullQueueRTT:         sizing.RTT + queueDrain,
		CwndPeakPackets:      peak,
		CwndTroughPackets:    peak / 2,
		SteadyRateBitsPerSec: sizing.RateBitsPerSec,
	}
}

// CheckSaturatedRTT validates round-trip-time samples, in seconds,
// collected while a bulk transfer keeps the bottleneck queue full:
// the median sample must be within the given relative tolerance of
// [Expectations.FullQueueRTT].
func (e *Expectations) CheckSaturatedRTT(rttSeconds []float64, tolerance float64) error {
	median, err := stats.Median(rttSeconds)
	if err != nil {
		return err
	}
	expect := e.FullQueueRTT.Seconds()
	if math.Abs(median-expect) > tolerance*expect {
		return fmt.Errorf(
			"median RTT %fs is not within %.0f%% of the predicted %fs",
			median, tolerance*100, expect,
		)
	}
	return nil
}

// CheckThroughput validates throughput samples, in Mbit/s, collected
// during the steady state of a bulk transfer: the median sample must
// be within the given relative tolerance of the bottleneck rate.
func (e *Expectations) CheckThroughput(speedsMbps []float64, tolerance float64) error {
	median, err := stats.Median(speedsMbps)
	if err != nil {
		return err
	}
	expect := e.SteadyRateBitsPerSec / (1000 * 1000)
	if math.Abs(median-expect) > tolerance*expect {
		return fmt.Errorf(
			"median throughput %f Mbit/s is not within %.0f%% of the predicted %f Mbit/s",
			median, tolerance*100, expect,
		)
	}
	return nil
}
