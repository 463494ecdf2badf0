package linklab

//
// Single-stream throughput measurement ("blast")
//

import (
	"context"
	"math/rand"
	"net"
	"time"
)

// blastSampleInterval is how often the client emits a sample.
const blastSampleInterval = 500 * time.Millisecond

// ThroughputSample is a periodic sample of a blast transfer.
type ThroughputSample struct {
	// Elapsed is the time since the transfer started.
	Elapsed time.Duration

	// TotalBytes is the number of bytes received so far.
	TotalBytes int64

	// CurrentBytes is the number of bytes received since the
	// previous sample.
	CurrentBytes int64

	// AvgSpeedMbps is the average download speed in Mbit/s.
	AvgSpeedMbps float64

	// CurSpeedMbps is the download speed since the previous
	// sample in Mbit/s.
	CurSpeedMbps float64
}

// RunBlastClient downloads from a blast server using a single TCP
// stream and keeps the bottleneck queue full, which is exactly the
// regime the BDP sizing is designed for. The client emits a
// [ThroughputSample] through sink every 500 milliseconds.
//
// Arguments:
//
// - ctx limits the overall measurement runtime;
//
// - dialer is the dialer to use (e.g., a [net.Dialer]);
//
// - serverAddr is the server endpoint address (e.g., 10.0.1.2:54321);
//
// - logger is the logger to use;
//
// - sink receives the periodic samples and may be nil.
//
// The measurement ends without error when the context expires or the
// server closes the connection.
func RunBlastClient(
	ctx context.Context,
	dialer Dialer,
	serverAddr string,
	logger Logger,
	sink func(ThroughputSample),
) error {
	// create ticker for periodically sampling the download speed
	ticker := time.NewTicker(blastSampleInterval)
	defer ticker.Stop()

	// connect to the server
	conn, err := dialer.DialContext(ctx, "tcp", serverAddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	// if the context has a deadline, apply it to the connection as well
	if deadline, okay := ctx.Deadline(); okay {
		_ = conn.SetDeadline(deadline)
	}

	// buffer for receiving from the server
	buffer := make([]byte, 65535)

	// current is the number of bytes read since the last sample
	var current int64

	// total is the number of bytes read thus far
	var total int64

	// t0 is when we started measuring
	t0 := time.Now()

	// lastT is the last time we sampled the connection
	lastT := time.Now()

	// run the measurement loop
	for {
		count, err := conn.Read(buffer)
		if err != nil {
			logger.Warnf("linklab: RunBlastClient: %s", err.Error())
			return nil
		}
		current += int64(count)
		total += int64(count)

		select {
		case <-ticker.C:
			elapsed := time.Since(t0)
			sample := ThroughputSample{
				Elapsed:      elapsed,
				TotalBytes:   total,
				CurrentBytes: current,
				AvgSpeedMbps: (float64(total*8) / elapsed.Seconds()) / (1000 * 1000),
				CurSpeedMbps: (float64(current*8) / time.Since(lastT).Seconds()) / (1000 * 1000),
			}
			if sink != nil {
				sink(sample)
			}
			current = 0
			lastT = time.Now()
		case <-ctx.Done():
			return nil
		default:
			// nothing
		}
	}
}

// RunBlastServer runs the blast server. The server will listen for a
// single client connection and write random bytes as fast as possible
// until the client closes the connection.
//
// You should run this function in a background goroutine.
//
// Arguments:
//
// - ctx limits the overall measurement runtime;
//
// - listenAddr is the TCP endpoint where we should listen;
//
// - logger is the logger to use;
//
// - ready receives the listening address once we are listening;
//
// - errorch is where we post the overall result of this function (we
// will post a nil value in case of success).
func RunBlastServer(
	ctx context.Context,
	listenAddr string,
	logger Logger,
	ready chan<- net.Addr,
	errorch chan<- error,
) {
	// create buffer with random data
	buffer := make([]byte, 65535)
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	rnd.Read(buffer)

	// listen for an incoming client connection
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		errorch <- err
		return
	}

	// notify the client it can now attempt connecting
	ready <- listener.Addr()

	// accept client connection and stop listening
	conn, err := listener.Accept()
	if err != nil {
		listener.Close()
		errorch <- err
		return
	}
	listener.Close()
	defer conn.Close()

	// if the context has a deadline, apply it to the connection as well
	if deadline, okay := ctx.Deadline(); okay {
		_ = conn.SetDeadline(deadline)
	}

	// run the measurement loop
	for {
		if _, err := conn.Write(buffer); err != nil {
			logger.Warnf("linklab: RunBlastServer: %s", err.Error())
			errorch <- nil
			return
		}
	}
}
