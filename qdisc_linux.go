//go:build linux

package linklab

//
// Queuing discipline provisioning: netlink backend
//

import (
	"errors"
	"fmt"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// Apply programs the plan on the interface through netlink, clearing
// any preexisting root qdisc first so that repeated applications are
// deterministic. This requires CAP_NET_ADMIN.
func (p *QdiscPlan) Apply(logger Logger) error {
	dev, err := netlink.LinkByName(p.Interface)
	if err != nil {
		return fmt.Errorf("device %s not found: %w", p.Interface, err)
	}
	if err := clearRootQdisc(dev); err != nil {
		return fmt.Errorf("clear qdiscs on %s: %w", p.Interface, err)
	}

	logger.Infof(
		"linklab: provisioning %s: delay %s rate %s queue %d bytes",
		p.Interface, p.Delay, formatBitrate(p.RateBitsPerSec), p.QueueLimitBytes,
	)

	idx := dev.Attrs().Index

	// the root netem carries the artificial delay
	netem := netlink.NewNetem(
		netlink.QdiscAttrs{
			LinkIndex: idx,
			Handle:    netlink.MakeHandle(1, 0),
			Parent:    netlink.HANDLE_ROOT,
		},
		netlink.NetemQdiscAttrs{
			Latency: uint32(p.Delay.Microseconds()),
		},
	)
	if err := qdiscReplaceOrAdd(netem); err != nil {
		return fmt.Errorf("add/replace netem qdisc: %w", err)
	}

	// the child tbf rate-limits and bounds the queue in bytes
	rateBytes := p.RateBitsPerSec / 8
	tbf := &netlink.Tbf{
		QdiscAttrs: netlink.QdiscAttrs{
			LinkIndex: idx,
			Handle:    netlink.MakeHandle(10, 0),
			Parent:    netlink.MakeHandle(1, 1),
		},
		Rate:   rateBytes,
		Limit:  uint32(p.QueueLimitBytes),
		Buffer: netlink.Xmittime(rateBytes, uint32(p.BurstBytes)),
	}
	if err := qdiscReplaceOrAdd(tbf); err != nil {
		if errors.Is(err, unix.EINVAL) {
			return fmt.Errorf("add/replace tbf qdisc got EINVAL (queue limit too small for the rate?): %w", err)
		}
		return fmt.Errorf("add/replace tbf qdisc: %w", err)
	}

	logger.Infof("linklab: provisioned %s", p.Interface)
	return nil
}

// Cleanup removes the plan's qdiscs from the interface.
func (p *QdiscPlan) Cleanup(logger Logger) error {
	dev, err := netlink.LinkByName(p.Interface)
	if err != nil {
		return fmt.Errorf("device %s not found: %w", p.Interface, err)
	}
	if err := clearRootQdisc(dev); err != nil {
		return fmt.Errorf("cleanup qdiscs on %s: %w", p.Interface, err)
	}
	logger.Infof("linklab: cleaned up %s", p.Interface)
	return nil
}

// clearRootQdisc removes the root qdisc, resetting any existing
// tc state on the interface.
func clearRootQdisc(dev netlink.Link) error {
	qdiscs, err := netlink.QdiscList(dev)
	if err != nil {
		return fmt.Errorf("QdiscList: %w", err)
	}
	for _, q := range qdiscs {
		if q.Attrs().Parent == netlink.HANDLE_ROOT {
			_ = netlink.QdiscDel(q)
		}
	}
	return nil
}

func qdiscReplaceOrAdd(q netlink.Qdisc) error {
	if err := netlink.QdiscReplace(q); err == nil {
		return nil
	}
	_ = netlink.QdiscDel(q)
	if err := netlink.QdiscAdd(q); err != nil {
		return fmt.Errorf("replace failed, add failed: %w", err)
	}
	return nil
}
