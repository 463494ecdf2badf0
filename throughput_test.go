package linklab

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestBlastOverLoopback(t *testing.T) {
	if testing.Short() {
		t.Skip("skip test in short mode")
	}

	// bound the overall measurement runtime
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// start the blast server in the background
	ready, errorch := make(chan net.Addr, 1), make(chan error, 1)
	go RunBlastServer(ctx, "127.0.0.1:0", &NullLogger{}, ready, errorch)

	// await for the server to be listening
	addr := <-ready

	// run the client in the foreground and collect samples
	var samples []ThroughputSample
	err := RunBlastClient(ctx, &net.Dialer{}, addr.String(), &NullLogger{}, func(sample ThroughputSample) {
		samples = append(samples, sample)
	})
	if err != nil {
		t.Fatal(err)
	}

	// the server should observe the client going away as a write
	// error, which it reports as success
	if err := <-errorch; err != nil {
		t.Fatal(err)
	}

	// over two seconds we expect at least a couple of samples
	if len(samples) < 2 {
		t.Fatal("expected at least two samples, got", len(samples))
	}

	// samples must be cumulative and positive
	var previous ThroughputSample
	for _, sample := range samples {
		if sample.Elapsed <= previous.Elapsed {
			t.Fatal("expected monotonically increasing elapsed times")
		}
		if sample.TotalBytes < previous.TotalBytes {
			t.Fatal("expected monotonically increasing totals")
		}
		if sample.AvgSpeedMbps <= 0 {
			t.Fatal("expected a positive average speed")
		}
		previous = sample
	}
}

func TestBlastServerListenFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// use an address nobody can listen on
	ready, errorch := make(chan net.Addr, 1), make(chan error, 1)
	go RunBlastServer(ctx, "203.0.113.1:1", &NullLogger{}, ready, errorch)

	select {
	case err := <-errorch:
		if err == nil {
			t.Fatal("expected an error")
		}
	case <-ready:
		t.Fatal("expected a listen failure")
	}
}
