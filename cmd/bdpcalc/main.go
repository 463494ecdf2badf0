// Command bdpcalc computes the BDP-based sizing of a bottleneck link
// and prints the queuing-discipline values that provision it.
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/bassosimone/linklab"
)

func main() {
	// parse command line flags
	delay := flag.Duration("delay", 10*time.Millisecond, "one-way propagation delay")
	rtt := flag.Duration("rtt", 0, "round-trip time (overrides -delay when nonzero)")
	rate := flag.String("rate", "10m", "bottleneck rate (e.g., 500k, 10m, 1g)")
	packetSize := flag.Int64("packet-size", linklab.DefaultPacketSizeBytes, "assumed packet size in bytes")
	multiplier := flag.Float64("multiplier", linklab.DefaultQueueBDPMultiplier, "queue capacity in BDPs")
	iface := flag.String("interface", "eth1", "bottleneck egress interface")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	rateBits, err := linklab.ParseBandwidth(*rate)
	if err != nil {
		log.WithError(err).Fatal("cannot parse the -rate flag")
	}

	options := &linklab.SizingOptions{
		PacketSizeBytes:    *packetSize,
		QueueBDPMultiplier: *multiplier,
	}

	// compute the sizing, honoring a directly-supplied RTT
	var sizing *linklab.Sizing
	if *rtt > 0 {
		sizing, err = linklab.ComputeBDPFromRTT(log.Log, *rtt, float64(rateBits), options)
	} else {
		sizing, err = linklab.ComputeBDP(log.Log, *delay, float64(rateBits), options)
	}
	if err != nil {
		log.WithError(err).Fatal("cannot compute the sizing")
	}

	fmt.Printf("rtt: %s\n", sizing.RTT)
	fmt.Printf("bdp: %.0f bytes (%d packets of %d bytes)\n",
		sizing.BDPBytes, sizing.BDPPackets, sizing.PacketSizeBytes)
	fmt.Printf("queue: %d bytes (%d packets, %gx BDP)\n",
		sizing.QueueBytes, sizing.QueuePackets, sizing.QueueBDPMultiplier)

	expectations := linklab.PredictObservables(sizing)
	fmt.Printf("expected cwnd oscillation: %d to %d packets\n",
		expectations.CwndTroughPackets, expectations.CwndPeakPackets)
	fmt.Printf("expected rtt with a full queue: %s\n", expectations.FullQueueRTT)

	fmt.Printf("\n# provision the bottleneck egress with:\n")
	plan := linklab.NewQdiscPlan(*iface, sizing.RTT/2, rateBits, sizing)
	for _, command := range plan.Commands() {
		fmt.Println(command)
	}
}
