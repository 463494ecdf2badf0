// Command blast measures single-stream TCP throughput through the
// testbed. Run the server on the server host and the client on the
// client host; while the client runs, the bottleneck queue stays
// full, so a concurrent connect-RTT probe should observe the
// predicted full-queue round-trip time.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"time"

	"github.com/apex/log"
	"github.com/bassosimone/linklab"
)

func main() {
	// parse command line flags
	listenAddr := flag.String("listen", "", "run the server on this endpoint (e.g., 10.0.1.2:54321)")
	connectAddr := flag.String("connect", "", "run the client against this endpoint")
	duration := flag.Duration("duration", 10*time.Second, "duration of the measurement")
	flag.Parse()

	if (*listenAddr == "") == (*connectAddr == "") {
		log.Fatal("exactly one of -listen and -connect is required")
	}

	// make sure we will eventually stop
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	if *listenAddr != "" {
		runServer(ctx, *listenAddr)
		return
	}
	runClient(ctx, *connectAddr)
}

func runServer(ctx context.Context, listenAddr string) {
	ready, errorch := make(chan net.Addr, 1), make(chan error, 1)
	go linklab.RunBlastServer(ctx, listenAddr, log.Log, ready, errorch)

	select {
	case addr := <-ready:
		log.Infof("listening at %s", addr)
	case err := <-errorch:
		log.WithError(err).Fatal("cannot start the blast server")
	}

	if err := <-errorch; err != nil {
		log.WithError(err).Fatal("blast server failed")
	}
}

func runClient(ctx context.Context, connectAddr string) {
	fmt.Printf("elapsed (s),total (byte),current (byte),avg speed (Mbit/s),cur speed (Mbit/s)\n")
	err := linklab.RunBlastClient(ctx, &net.Dialer{}, connectAddr, log.Log,
		func(sample linklab.ThroughputSample) {
			fmt.Printf("%f,%d,%d,%f,%f\n",
				sample.Elapsed.Seconds(), sample.TotalBytes,
				sample.CurrentBytes, sample.AvgSpeedMbps, sample.CurSpeedMbps)
		})
	if err != nil {
		log.WithError(err).Fatal("cannot run the blast client")
	}
}
