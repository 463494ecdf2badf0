package linklab

//
// Testbed topology description
//

import (
	"errors"
	"fmt"
	"net"

	"gopkg.in/yaml.v3"
)

// ErrDuplicateAddr indicates that an address has been assigned to
// more than one interface of the topology.
var ErrDuplicateAddr = errors.New("linklab: address has already been assigned")

// ErrInvalidAddr indicates that an address is not a valid IPv4 address.
var ErrInvalidAddr = errors.New("linklab: not a valid IPv4 address")

// Host describes a testbed host: a name, an IPv4 address, and the
// address of the router to use as the default route.
type Host struct {
	// Name is the host name, e.g., "client".
	Name string `yaml:"name"`

	// Address is the host IPv4 address.
	Address string `yaml:"address"`

	// DefaultRoute is the IPv4 address of the next hop.
	DefaultRoute string `yaml:"default_route"`
}

// RouterNode describes the routing-capable node sitting between the
// two hosts. IP forwarding must be enabled when the node is brought
// up and disabled again at teardown.
type RouterNode struct {
	// Name is the router name, e.g., "router".
	Name string `yaml:"name"`

	// ClientSideAddress is the IPv4 address facing the client.
	ClientSideAddress string `yaml:"client_side_address"`

	// ServerSideAddress is the IPv4 address facing the server.
	ServerSideAddress string `yaml:"server_side_address"`

	// IPForwarding indicates that the node forwards IP traffic.
	IPForwarding bool `yaml:"ip_forwarding"`
}

// LinkSpec describes a link between two named nodes of the topology.
type LinkSpec struct {
	// Left is the name of the left node.
	Left string `yaml:"left"`

	// Right is the name of the right node.
	Right string `yaml:"right"`

	// Delay is the one-way propagation delay of the link.
	Delay Duration `yaml:"delay"`

	// Rate is the link rate in bit/s (zero means unshaped).
	Rate uint64 `yaml:"rate"`

	// TrafficControl tags the link as supporting traffic-control
	// configuration (the emulator must create it accordingly).
	TrafficControl bool `yaml:"traffic_control"`
}

// DumbbellTopology is the declarative description of a three-node
// testbed: a client and a server connected through a router, with the
// bottleneck on the router-to-server link. This is the input shape
// consumed by the external network emulator; we never instantiate the
// topology ourselves. The zero value is invalid; construct using
// [NewDumbbellTopology].
type DumbbellTopology struct {
	// Client is the client host.
	Client Host `yaml:"client"`

	// Server is the server host.
	Server Host `yaml:"server"`

	// Router is the node between the two hosts.
	Router RouterNode `yaml:"router"`

	// AccessLink connects the client to the router and is unshaped.
	AccessLink LinkSpec `yaml:"access_link"`

	// BottleneckLink connects the router to the server and carries
	// the delay, the rate limit, and the sized queue.
	BottleneckLink LinkSpec `yaml:"bottleneck_link"`
}

// DumbbellConfig contains configuration for [NewDumbbellTopology].
type DumbbellConfig struct {
	// ClientAddress is the client IPv4 address.
	ClientAddress string

	// ServerAddress is the server IPv4 address.
	ServerAddress string

	// RouterClientAddress is the router IPv4 address facing the client.
	RouterClientAddress string

	// RouterServerAddress is the router IPv4 address facing the server.
	RouterServerAddress string

	// DelayOneWay is the one-way delay of the bottleneck link.
	DelayOneWay Duration

	// RateBitsPerSec is the rate of the bottleneck link.
	RateBitsPerSec uint64
}

// NewDumbbellTopology creates the description of a three-node
// dumbbell testbed. Each host uses the router's address on its side
// as the default route, the router has IP forwarding enabled, and
// the bottleneck link is tagged for traffic control.
//
// This function fails with [ErrInvalidAddr] when an address does not
// parse as IPv4 and with [ErrDuplicateAddr] when the same address is
// assigned to more than one interface.
func NewDumbbellTopology(config *DumbbellConfig) (*DumbbellTopology, error) {
	addresses := []string{
		config.ClientAddress,
		config.ServerAddress,
		config.RouterClientAddress,
		config.RouterServerAddress,
	}
	seen := map[string]int{}
	for _, address := range addresses {
		ip := net.ParseIP(address)
		if ip == nil || ip.To4() == nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAddr, address)
		}
		if seen[address] > 0 {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAddr, address)
		}
		seen[address]++
	}

	topology := &DumbbellTopology{
		Client: Host{
			Name:         "client",
			Address:      config.ClientAddress,
			DefaultRoute: config.RouterClientAddress,
		},
		Server: Host{
			Name:         "server",
			Address:      config.ServerAddress,
			DefaultRoute: config.RouterServerAddress,
		},
		Router: RouterNode{
			Name:              "router",
			ClientSideAddress: config.RouterClientAddress,
			ServerSideAddress: config.RouterServerAddress,
			IPForwarding:      true,
		},
		AccessLink: LinkSpec{
			Left:           "client",
			Right:          "router",
			Delay:          0,
			Rate:           0,
			TrafficControl: false,
		},
		BottleneckLink: LinkSpec{
			Left:           "router",
			Right:          "server",
			Delay:          config.DelayOneWay,
			Rate:           config.RateBitsPerSec,
			TrafficControl: true,
		},
	}
	return topology, nil
}

// Marshal serializes the topology description as YAML.
func (t *DumbbellTopology) Marshal() ([]byte, error) {
	return yaml.Marshal(t)
}
