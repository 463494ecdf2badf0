// Command rttprobe estimates the round-trip time towards a TCP
// endpoint by timing connection establishment. Probe an idle testbed
// to verify the base RTT, then probe again while blast runs to
// verify that a full queue doubles the measured RTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/bassosimone/linklab"
)

func main() {
	// parse command line flags
	target := flag.String("target", "", "TCP endpoint to probe (e.g., 10.0.1.2:54321)")
	count := flag.Int("count", 10, "number of samples to collect")
	interval := flag.Duration("interval", time.Second, "pause between samples")
	flag.Parse()

	if *target == "" {
		log.Fatal("the -target flag is required")
	}

	probe := &linklab.RTTProbe{
		Logger:   log.Log,
		Target:   *target,
		Count:    *count,
		Interval: *interval,
	}
	summary, err := probe.Run(context.Background())
	if err != nil {
		log.WithError(err).Fatal("cannot probe the target")
	}
	fmt.Println(summary.String())
}
