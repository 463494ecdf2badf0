package linklab

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestPredictObservables(t *testing.T) {
	// the documented worked example: 20 ms RTT and 10 Mbit/s with a
	// 24000 bytes queue adds 19.2 ms of queueing delay when full
	sizing, err := ComputeBDP(&NullLogger{}, 10*time.Millisecond, 10_000_000, nil)
	if err != nil {
		t.Fatal(err)
	}

	expect := &Expectations{
		BaseRTT:              20 * time.Millisecond,
		FullQueueRTT:         39200 * time.Microsecond,
		CwndPeakPackets:      32,
		CwndTroughPackets:    16,
		SteadyRateBitsPerSec: 10_000_000,
	}
	got := PredictObservables(sizing)
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestCheckSaturatedRTT(t *testing.T) {
	sizing, err := ComputeBDP(&NullLogger{}, 10*time.Millisecond, 10_000_000, nil)
	if err != nil {
		t.Fatal(err)
	}
	expectations := PredictObservables(sizing)

	t.Run("accepts samples close to the prediction", func(t *testing.T) {
		samples := []float64{0.0385, 0.0391, 0.0400, 0.0393, 0.0398}
		if err := expectations.CheckSaturatedRTT(samples, 0.15); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("rejects samples close to the base RTT", func(t *testing.T) {
		// these samples mean the queue never filled up
		samples := []float64{0.020, 0.021, 0.020, 0.022, 0.020}
		if err := expectations.CheckSaturatedRTT(samples, 0.15); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("rejects an empty sample set", func(t *testing.T) {
		if err := expectations.CheckSaturatedRTT(nil, 0.15); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestCheckThroughput(t *testing.T) {
	sizing, err := ComputeBDP(&NullLogger{}, 10*time.Millisecond, 10_000_000, nil)
	if err != nil {
		t.Fatal(err)
	}
	expectations := PredictObservables(sizing)

	t.Run("accepts samples close to the bottleneck rate", func(t *testing.T) {
		samples := []float64{9.4, 9.6, 9.5, 9.7, 9.5}
		if err := expectations.CheckThroughput(samples, 0.15); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("rejects samples well below the bottleneck rate", func(t *testing.T) {
		samples := []float64{2.1, 2.3, 2.2, 2.4, 2.2}
		if err := expectations.CheckThroughput(samples, 0.15); err == nil {
			t.Fatal("expected an error")
		}
	})
}
