package linklab

//
// Bandwidth-delay product sizing
//

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultPacketSizeBytes is the packet size we assume when the
// caller does not provide one. This is the typical MTU-sized TCP
// segment on an Ethernet-like link.
const DefaultPacketSizeBytes = 1500

// DefaultQueueBDPMultiplier is the queue multiplier we use when the
// caller does not provide one: a single BDP worth of buffering.
const DefaultQueueBDPMultiplier = 1.0

// minObservablePackets is the BDP, in packets, below which a single
// TCP flow cannot exhibit an observable congestion-avoidance
// sawtooth. Below this value we emit [WarnDegenerateConfiguration].
const minObservablePackets = 2

// maxReasonablePackets bounds the BDP, in packets, that we accept
// before declaring the input out of domain: larger values imply
// buffer requirements no real testbed can provision.
const maxReasonablePackets = 1 << 24

// excessiveQueueMultiplier is the queue multiplier above which we
// emit [WarnExcessiveQueueDepth]: queues deeper than a few BDPs
// produce the pathological standing-queue regime rather than the
// sawtooth this sizing is designed to elicit.
const excessiveQueueMultiplier = 3.0

// ErrInvalidInput indicates that a numeric input is non-positive or
// otherwise out of domain.
var ErrInvalidInput = errors.New("linklab: invalid input")

// ErrDegenerateConfiguration indicates that the computed BDP resolves
// to fewer packets than required for an observable experiment.
var ErrDegenerateConfiguration = errors.New("linklab: degenerate configuration")

// Warning codes attached to a [Sizing].
const (
	// WarnDegenerateConfiguration says the BDP resolves to fewer than
	// [minObservablePackets] packets.
	WarnDegenerateConfiguration = "degenerate-configuration"

	// WarnExcessiveQueueDepth says the queue multiplier provisions
	// more than [excessiveQueueMultiplier] BDPs of buffering.
	WarnExcessiveQueueDepth = "excessive-queue-depth"
)

// Warning is a non-fatal diagnostic attached to a [Sizing].
type Warning struct {
	// Code is one of the Warn* constants.
	Code string

	// Message is the human-readable diagnostic.
	Message string
}

// SizingOptions contains optional knobs for [ComputeBDP] and
// [ComputeBDPFromRTT]. The zero value of each field selects
// the corresponding default.
type SizingOptions struct {
	// PacketSizeBytes is the assumed segment size in bytes. The
	// default is [DefaultPacketSizeBytes].
	PacketSizeBytes int64

	// QueueBDPMultiplier controls how many BDPs of buffering to
	// provision. The default is [DefaultQueueBDPMultiplier]. Values
	// above [excessiveQueueMultiplier] are legal but produce a
	// [WarnExcessiveQueueDepth] diagnostic.
	QueueBDPMultiplier float64
}

// Sizing is the result of the BDP derivation. This is a value object:
// it is computed once from its inputs and never mutated afterwards.
type Sizing struct {
	// RTT is the round-trip time used for the derivation.
	RTT time.Duration

	// RateBitsPerSec is the bottleneck rate used for the derivation.
	RateBitsPerSec float64

	// PacketSizeBytes is the assumed segment size.
	PacketSizeBytes int64

	// QueueBDPMultiplier is the multiplier used for the queue.
	QueueBDPMultiplier float64

	// BDPBytes is the bandwidth-delay product in bytes, equal to
	// RTT times RateBitsPerSec divided by eight.
	BDPBytes float64

	// BDPPackets is floor(BDPBytes / PacketSizeBytes).
	BDPPackets int64

	// QueueBytes is the recommended queue capacity in bytes. It is
	// always an exact multiple of PacketSizeBytes and never exceeds
	// BDPBytes times QueueBDPMultiplier.
	QueueBytes int64

	// QueuePackets is QueueBytes / PacketSizeBytes.
	QueuePackets int64

	// Warnings contains the non-fatal diagnostics emitted while
	// computing this sizing.
	Warnings []Warning
}

// ComputeBDP derives the bandwidth-delay product and the recommended
// queue capacity for a bottleneck link given its one-way propagation
// delay. The round-trip time is twice the one-way delay; use
// [ComputeBDPFromRTT] when you measured the RTT directly.
//
// Arguments:
//
// - logger receives warning-level diagnostics (use [NullLogger] to
// silence them);
//
// - delayOneWay is the one-way propagation delay, which must not be
// negative (a zero delay is accepted and yields a degenerate sizing);
//
// - rateBitsPerSec is the bottleneck rate, which must be positive;
//
// - options may be nil to select all the defaults.
//
// This function fails with an error wrapping [ErrInvalidInput] when
// an input is out of domain. A BDP too small for the experiment to
// show a sawtooth is not an error: the returned [Sizing] carries a
// [WarnDegenerateConfiguration] warning and [Sizing.Check] converts
// it into [ErrDegenerateConfiguration] for callers that want to stop.
func ComputeBDP(
	logger Logger,
	delayOneWay time.Duration,
	rateBitsPerSec float64,
	options *SizingOptions,
) (*Sizing, error) {
	if delayOneWay < 0 {
		return nil, fmt.Errorf(
			"%w: one-way delay must not be negative, got %s",
			ErrInvalidInput, delayOneWay,
		)
	}
	return ComputeBDPFromRTT(logger, 2*delayOneWay, rateBitsPerSec, options)
}

// ComputeBDPFromRTT is like [ComputeBDP] except that it takes the
// round-trip time directly rather than doubling a one-way delay.
func ComputeBDPFromRTT(
	logger Logger,
	rtt time.Duration,
	rateBitsPerSec float64,
	options *SizingOptions,
) (*Sizing, error) {
	if logger == nil {
		logger = &NullLogger{}
	}

	// fill in the defaults for unset options
	packetSizeBytes := int64(DefaultPacketSizeBytes)
	multiplier := DefaultQueueBDPMultiplier
	if options != nil {
		if options.PacketSizeBytes != 0 {
			packetSizeBytes = options.PacketSizeBytes
		}
		if options.QueueBDPMultiplier != 0 {
			multiplier = options.QueueBDPMultiplier
		}
	}

	// reject out-of-domain inputs
	if rtt < 0 {
		return nil, fmt.Errorf(
			"%w: round-trip time must not be negative, got %s",
			ErrInvalidInput, rtt,
		)
	}
	if rateBitsPerSec <= 0 || math.IsNaN(rateBitsPerSec) || math.IsInf(rateBitsPerSec, 0) {
		return nil, fmt.Errorf(
			"%w: rate must be a positive finite number of bit/s, got %v",
			ErrInvalidInput, rateBitsPerSec,
		)
	}
	if packetSizeBytes <= 0 {
		return nil, fmt.Errorf(
			"%w: packet size must be positive, got %d bytes",
			ErrInvalidInput, packetSizeBytes,
		)
	}
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return nil, fmt.Errorf(
			"%w: queue multiplier must be a positive finite number, got %v",
			ErrInvalidInput, multiplier,
		)
	}

	// derive the BDP in bytes and packets; bound the packet count
	// while still in the float domain, because converting a huge
	// float to int64 overflows and may wrap around to a negative
	// value that would sail past an integer comparison
	bdpBits := rtt.Seconds() * rateBitsPerSec
	bdpBytes := bdpBits / 8
	floatBDPPackets := math.Floor(bdpBytes / float64(packetSizeBytes))
	if floatBDPPackets > maxReasonablePackets {
		return nil, fmt.Errorf(
			"%w: BDP is %.0f packets, above the %d packets upper bound",
			ErrInvalidInput, floatBDPPackets, int64(maxReasonablePackets),
		)
	}
	bdpPackets := int64(floatBDPPackets)

	// derive the queue capacity truncated to whole packets: a real
	// byte-limited queue cannot buffer a fraction of a packet; the
	// multiplier may push the queue past the bound even when the
	// BDP itself is fine, so bound this one in float too
	floatQueuePackets := math.Floor(bdpBytes * multiplier / float64(packetSizeBytes))
	if floatQueuePackets > maxReasonablePackets {
		return nil, fmt.Errorf(
			"%w: queue is %.0f packets, above the %d packets upper bound",
			ErrInvalidInput, floatQueuePackets, int64(maxReasonablePackets),
		)
	}
	queuePackets := int64(floatQueuePackets)
	queueBytes := queuePackets * packetSizeBytes

	sizing := &Sizing{
		RTT:                rtt,
		RateBitsPerSec:     rateBitsPerSec,
		PacketSizeBytes:    packetSizeBytes,
		QueueBDPMultiplier: multiplier,
		BDPBytes:           bdpBytes,
		BDPPackets:         bdpPackets,
		QueueBytes:         queueBytes,
		QueuePackets:       queuePackets,
	}

	if bdpPackets < minObservablePackets {
		warning := Warning{
			Code: WarnDegenerateConfiguration,
			Message: fmt.Sprintf(
				"BDP is %d packets, below the %d packets minimum: the congestion-avoidance sawtooth will not be observable",
				bdpPackets, int64(minObservablePackets),
			),
		}
		sizing.Warnings = append(sizing.Warnings, warning)
		logger.Warnf("linklab: %s", warning.Message)
	}

	if multiplier > excessiveQueueMultiplier {
		warning := Warning{
			Code: WarnExcessiveQueueDepth,
			Message: fmt.Sprintf(
				"queue multiplier is %v, above the %v threshold: multi-BDP queues cause pathological TCP behavior",
				multiplier, excessiveQueueMultiplier,
			),
		}
		sizing.Warnings = append(sizing.Warnings, warning)
		logger.Warnf("linklab: %s", warning.Message)
	}

	return sizing, nil
}

// HasWarning returns whether the sizing carries a warning with the
// given code.
func (s *Sizing) HasWarning(code string) bool {
	for _, warning := range s.Warnings {
		if warning.Code == code {
			return true
		}
	}
	return false
}

// Check returns [ErrDegenerateConfiguration] when the sizing carries
// a [WarnDegenerateConfiguration] warning and nil otherwise. Callers
// probing corner cases on purpose can skip this check and use the
// sizing anyway.
func (s *Sizing) Check() error {
	for _, warning := range s.Warnings {
		if warning.Code == WarnDegenerateConfiguration {
			return fmt.Errorf("%w: %s", ErrDegenerateConfiguration, warning.Message)
		}
	}
	return nil
}
