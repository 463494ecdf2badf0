package linklab

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestComputeBDP(t *testing.T) {

	// testcase describes a test case for [ComputeBDP]
	type testcase struct {
		// name is the name of this test case
		name string

		// delayOneWay is the one-way delay input
		delayOneWay time.Duration

		// rateBitsPerSec is the rate input
		rateBitsPerSec float64

		// options contains the optional knobs (nil means defaults)
		options *SizingOptions

		// wantErr is the error target we expect (nil means success)
		wantErr error

		// wantSizing is the sizing we expect on success, with the
		// Warnings field left empty and checked separately
		wantSizing *Sizing

		// wantWarnings contains the warning codes we expect
		wantWarnings []string
	}

	var testcases = []testcase{{
		name:           "with the documented worked example",
		delayOneWay:    10 * time.Millisecond,
		rateBitsPerSec: 10_000_000,
		options:        nil,
		wantErr:        nil,
		wantSizing: &Sizing{
			RTT:                20 * time.Millisecond,
			RateBitsPerSec:     10_000_000,
			PacketSizeBytes:    1500,
			QueueBDPMultiplier: 1.0,
			BDPBytes:           25_000,
			BDPPackets:         16,
			QueueBytes:         24_000,
			QueuePackets:       16,
		},
		wantWarnings: nil,
	}, {
		name:           "with a zero one-way delay",
		delayOneWay:    0,
		rateBitsPerSec: 10_000_000,
		options:        nil,
		wantErr:        nil,
		wantSizing: &Sizing{
			RTT:                0,
			RateBitsPerSec:     10_000_000,
			PacketSizeBytes:    1500,
			QueueBDPMultiplier: 1.0,
			BDPBytes:           0,
			BDPPackets:         0,
			QueueBytes:         0,
			QueuePackets:       0,
		},
		wantWarnings: []string{WarnDegenerateConfiguration},
	}, {
		name:           "with a queue multiplier above the threshold",
		delayOneWay:    10 * time.Millisecond,
		rateBitsPerSec: 10_000_000,
		options: &SizingOptions{
			QueueBDPMultiplier: 5.0,
		},
		wantErr: nil,
		wantSizing: &Sizing{
			RTT:                20 * time.Millisecond,
			RateBitsPerSec:     10_000_000,
			PacketSizeBytes:    1500,
			QueueBDPMultiplier: 5.0,
			BDPBytes:           25_000,
			BDPPackets:         16,
			QueueBytes:         124_500,
			QueuePackets:       83,
		},
		wantWarnings: []string{WarnExcessiveQueueDepth},
	}, {
		name:           "with a packet size larger than the BDP",
		delayOneWay:    10 * time.Millisecond,
		rateBitsPerSec: 10_000_000,
		options: &SizingOptions{
			PacketSizeBytes: 32_000,
		},
		wantErr: nil,
		wantSizing: &Sizing{
			RTT:                20 * time.Millisecond,
			RateBitsPerSec:     10_000_000,
			PacketSizeBytes:    32_000,
			QueueBDPMultiplier: 1.0,
			BDPBytes:           25_000,
			BDPPackets:         0,
			QueueBytes:         0,
			QueuePackets:       0,
		},
		wantWarnings: []string{WarnDegenerateConfiguration},
	}, {
		name:           "with a negative one-way delay",
		delayOneWay:    -10 * time.Millisecond,
		rateBitsPerSec: 10_000_000,
		options:        nil,
		wantErr:        ErrInvalidInput,
	}, {
		name:           "with a zero rate",
		delayOneWay:    10 * time.Millisecond,
		rateBitsPerSec: 0,
		options:        nil,
		wantErr:        ErrInvalidInput,
	}, {
		name:           "with a NaN rate",
		delayOneWay:    10 * time.Millisecond,
		rateBitsPerSec: math.NaN(),
		options:        nil,
		wantErr:        ErrInvalidInput,
	}, {
		name:           "with a negative packet size",
		delayOneWay:    10 * time.Millisecond,
		rateBitsPerSec: 10_000_000,
		options: &SizingOptions{
			PacketSizeBytes: -1500,
		},
		wantErr: ErrInvalidInput,
	}, {
		name:           "with a negative queue multiplier",
		delayOneWay:    10 * time.Millisecond,
		rateBitsPerSec: 10_000_000,
		options: &SizingOptions{
			QueueBDPMultiplier: -1.0,
		},
		wantErr: ErrInvalidInput,
	}, {
		name:           "with an absurdly large BDP",
		delayOneWay:    time.Hour,
		rateBitsPerSec: 1e12,
		options:        nil,
		wantErr:        ErrInvalidInput,
	}, {
		name:           "with a BDP too large for an int64 packet count",
		delayOneWay:    time.Hour,
		rateBitsPerSec: 1e30,
		options:        nil,
		wantErr:        ErrInvalidInput,
	}, {
		name:           "with a multiplier pushing the queue past the upper bound",
		delayOneWay:    10 * time.Millisecond,
		rateBitsPerSec: 10_000_000,
		options: &SizingOptions{
			QueueBDPMultiplier: 1e15,
		},
		wantErr: ErrInvalidInput,
	}}

	// approximately compares floating point fields of the sizing: the
	// derivation multiplies a duration in seconds by the rate, so the
	// result may be off by a few ULPs from the decimal expectation
	approximately := cmp.Comparer(func(left, right float64) bool {
		return math.Abs(left-right) < 1e-6
	})

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			sizing, err := ComputeBDP(
				&NullLogger{}, tc.delayOneWay, tc.rateBitsPerSec, tc.options)

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatal("expected", tc.wantErr, "got", err)
				}
				if sizing != nil {
					t.Fatal("expected nil sizing on failure")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}

			// check the warning codes
			var gotWarnings []string
			for _, warning := range sizing.Warnings {
				gotWarnings = append(gotWarnings, warning.Code)
			}
			if diff := cmp.Diff(tc.wantWarnings, gotWarnings); diff != "" {
				t.Fatal(diff)
			}

			// check the numbers ignoring the warning messages
			sizing.Warnings = nil
			if diff := cmp.Diff(tc.wantSizing, sizing, approximately); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestComputeBDPFromRTT(t *testing.T) {
	t.Run("is equivalent to doubling the one-way delay", func(t *testing.T) {
		fromDelay, err := ComputeBDP(&NullLogger{}, 10*time.Millisecond, 10_000_000, nil)
		if err != nil {
			t.Fatal(err)
		}
		fromRTT, err := ComputeBDPFromRTT(&NullLogger{}, 20*time.Millisecond, 10_000_000, nil)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(fromDelay, fromRTT); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("rejects a negative RTT", func(t *testing.T) {
		sizing, err := ComputeBDPFromRTT(&NullLogger{}, -time.Millisecond, 10_000_000, nil)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatal("expected ErrInvalidInput, got", err)
		}
		if sizing != nil {
			t.Fatal("expected nil sizing on failure")
		}
	})

	t.Run("converts bits to bytes exactly", func(t *testing.T) {
		// the derivation must be exactly RTT times rate over eight,
		// computed with the same floating point operations
		for _, rtt := range []time.Duration{
			time.Millisecond, 20 * time.Millisecond, 317 * time.Millisecond,
		} {
			for _, rate := range []float64{1e6, 1e7, 2.5e8} {
				sizing, err := ComputeBDPFromRTT(&NullLogger{}, rtt, rate, nil)
				if err != nil {
					t.Fatal(err)
				}
				if expect := rtt.Seconds() * rate / 8; sizing.BDPBytes != expect {
					t.Fatal("expected", expect, "got", sizing.BDPBytes)
				}
			}
		}
	})
}

func TestSizingIsPure(t *testing.T) {
	options := &SizingOptions{
		PacketSizeBytes:    1400,
		QueueBDPMultiplier: 1.5,
	}
	first, err := ComputeBDP(&NullLogger{}, 25*time.Millisecond, 50_000_000, options)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ComputeBDP(&NullLogger{}, 25*time.Millisecond, 50_000_000, options)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatal(diff)
	}
}

func TestQueueTruncationLaw(t *testing.T) {
	delays := []time.Duration{
		time.Millisecond, 7 * time.Millisecond, 10 * time.Millisecond,
		55 * time.Millisecond, 200 * time.Millisecond,
	}
	rates := []float64{1e6, 1e7, 1e8, 9.3e8}
	multipliers := []float64{0.5, 1.0, 2.0, 3.0}
	for _, delay := range delays {
		for _, rate := range rates {
			for _, multiplier := range multipliers {
				options := &SizingOptions{QueueBDPMultiplier: multiplier}
				sizing, err := ComputeBDP(&NullLogger{}, delay, rate, options)
				if err != nil {
					t.Fatal(err)
				}
				if sizing.QueueBytes%sizing.PacketSizeBytes != 0 {
					t.Fatal("queue capacity is not a whole number of packets")
				}
				if float64(sizing.QueueBytes) > sizing.BDPBytes*multiplier {
					t.Fatal("queue capacity exceeds the BDP times the multiplier")
				}
			}
		}
	}
}

func TestSizingCheck(t *testing.T) {
	t.Run("flags a degenerate configuration", func(t *testing.T) {
		sizing, err := ComputeBDP(&NullLogger{}, 0, 10_000_000, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := sizing.Check(); !errors.Is(err, ErrDegenerateConfiguration) {
			t.Fatal("expected ErrDegenerateConfiguration, got", err)
		}
	})

	t.Run("accepts a healthy configuration", func(t *testing.T) {
		sizing, err := ComputeBDP(&NullLogger{}, 10*time.Millisecond, 10_000_000, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := sizing.Check(); err != nil {
			t.Fatal(err)
		}
		if sizing.HasWarning(WarnDegenerateConfiguration) {
			t.Fatal("did not expect a degenerate-configuration warning")
		}
	})
}
