// Package linklab helps you provision and validate single-flow TCP
// congestion-control experiments running over a three-node testbed
// (a client, a router, and a server) with a single bottleneck link.
//
// The starting point is [ComputeBDP] (or [ComputeBDPFromRTT]), which
// derives the bandwidth-delay product of the bottleneck link and the
// recommended byte-limited queue capacity from the link's one-way
// delay (or round-trip time), its rate, and an assumed packet size.
// The resulting [Sizing] is the contract between all the other pieces
// of this package: the queue you configure is exactly one BDP (or a
// configurable multiple thereof) truncated to a whole number of
// packets.
//
// A [DumbbellTopology] is a declarative description of the testbed
// that you hand to your network emulator of choice: two hosts with
// addresses and default routes, plus a router with IP forwarding
// enabled and links tagged for traffic control. We do not emulate
// the network ourselves.
//
// A [QdiscPlan] binds a [Sizing] to a specific network interface. You
// can render it as `tc` command lines with [QdiscPlan.Commands] or,
// on Linux, apply it directly through netlink using [QdiscPlan.Apply].
//
// The [Expectations] type predicts what a correctly provisioned
// experiment should look like: the steady-state congestion window
// oscillating between one and two BDPs worth of packets, the measured
// round-trip time doubling when the queue is full, and the throughput
// converging to the bottleneck rate. Use [RunBlastServer],
// [RunBlastClient], and [RTTProbe] to collect the corresponding
// samples, then validate them against the predictions.
package linklab
