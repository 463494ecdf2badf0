package linklab

//
// Queuing discipline provisioning
//

import (
	"fmt"
	"time"
)

// tickRateHz is the timer frequency we assume when deriving the
// default burst for the rate limiter (the classic kernel HZ).
const tickRateHz = 250

// QdiscPlan binds a [Sizing] to a network interface: it carries the
// exact values handed to the queuing-discipline configuration tool
// for the bottleneck egress. The zero value is invalid; construct
// using [NewQdiscPlan].
type QdiscPlan struct {
	// Interface is the network interface to configure.
	Interface string

	// Delay is the artificial delay to add on this interface.
	Delay time.Duration

	// RateBitsPerSec is the rate limit in bit/s.
	RateBitsPerSec uint64

	// QueueLimitBytes is the capacity of the byte-limited FIFO
	// queue, i.e., the [Sizing.QueueBytes] value.
	QueueLimitBytes int64

	// BurstBytes is the bucket size for the rate limiter.
	BurstBytes int64
}

// NewQdiscPlan creates the queuing-discipline plan for the given
// interface: an artificial delay, a rate limiter, and a FIFO queue
// whose byte capacity is exactly the sizing's recommended queue.
func NewQdiscPlan(iface string, delay time.Duration, rateBitsPerSec uint64, sizing *Sizing) *QdiscPlan {
	rateBytes := rateBitsPerSec / 8
	return &QdiscPlan{
		Interface:       iface,
		Delay:           delay,
		RateBitsPerSec:  rateBitsPerSec,
		QueueLimitBytes: sizing.QueueBytes,
		BurstBytes:      int64(rateBytes/tickRateHz) + sizing.PacketSizeBytes,
	}
}

// Commands renders the plan as tc command lines for operators that
// prefer invoking the external tool themselves. The delay lives in a
// root netem qdisc and the rate limiter is a child tbf whose byte
// limit is the sized queue capacity.
func (p *QdiscPlan) Commands() []string {
	return []string{
		fmt.Sprintf(
			"tc qdisc replace dev %s root handle 1: netem delay %s",
			p.Interface, formatDelay(p.Delay),
		),
		fmt.Sprintf(
			"tc qdisc replace dev %s parent 1:1 handle 10: tbf rate %s burst %db limit %db",
			p.Interface, formatBitrate(p.RateBitsPerSec), p.BurstBytes, p.QueueLimitBytes,
		),
	}
}

// CleanupCommands renders the tc command lines that undo the plan.
func (p *QdiscPlan) CleanupCommands() []string {
	return []string{
		fmt.Sprintf("tc qdisc del dev %s root", p.Interface),
	}
}
