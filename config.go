package linklab

//
// Experiment configuration
//

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultClientAddress       = "10.0.0.2"
	defaultServerAddress       = "10.0.1.2"
	defaultRouterClientAddress = "10.0.0.1"
	defaultRouterServerAddress = "10.0.1.1"
	defaultBottleneckInterface = "eth1"
	defaultBlastPort           = 54321
	defaultBlastDuration       = 10 * time.Second
	defaultProbeCount          = 10
	defaultProbeInterval       = time.Second
)

// Duration wraps [time.Duration] so that YAML documents can express
// durations either as strings ("10ms") or as a number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar")
	}
	switch value.Tag {
	case "!!int", "!!float":
		var secs float64
		if err := value.Decode(&secs); err != nil {
			return err
		}
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	default:
		var raw string
		if err := value.Decode(&raw); err != nil {
			return err
		}
		if raw == "" {
			*d = 0
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration converts back to [time.Duration].
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config describes a single-flow TCP congestion experiment. Load it
// from YAML using [LoadConfig] or fill it programmatically and then
// call [Config.SetDefaults] and [Config.Validate] yourself.
type Config struct {
	// Link contains the bottleneck link parameters.
	Link LinkParameters `yaml:"link"`

	// PacketSizeBytes is the assumed segment size.
	PacketSizeBytes int64 `yaml:"packet_size"`

	// QueueBDPMultiplier controls how many BDPs of buffering the
	// bottleneck queue gets.
	QueueBDPMultiplier float64 `yaml:"queue_bdp_multiplier"`

	// Nodes contains the testbed addressing plan.
	Nodes NodesConfig `yaml:"nodes"`

	// Bottleneck names the interface carrying the qdisc.
	Bottleneck BottleneckConfig `yaml:"bottleneck"`

	// Probe configures the connect-RTT probe.
	Probe ProbeConfig `yaml:"probe"`

	// Blast configures the throughput measurement.
	Blast BlastConfig `yaml:"blast"`
}

// LinkParameters are the operator-supplied bottleneck link inputs.
// Exactly one of Delay and RTT may be nonzero: Delay is the one-way
// propagation delay (the RTT is twice that), while RTT supplies the
// round-trip time directly.
type LinkParameters struct {
	// Delay is the one-way propagation delay.
	Delay Duration `yaml:"delay"`

	// RTT is the round-trip time.
	RTT Duration `yaml:"rtt"`

	// Rate is the bottleneck rate as a bandwidth string, e.g., "10m".
	Rate string `yaml:"rate"`

	rateBits uint64
}

// RateBitsPerSec returns the parsed bottleneck rate. It is only
// valid after [Config.Validate] has succeeded.
func (lp *LinkParameters) RateBitsPerSec() uint64 {
	return lp.rateBits
}

// RoundTripTime returns the RTT, deriving it from the one-way delay
// when the RTT was not supplied directly.
func (lp *LinkParameters) RoundTripTime() time.Duration {
	if lp.RTT != 0 {
		return lp.RTT.Duration()
	}
	return 2 * lp.Delay.Duration()
}

// OneWayDelay returns the one-way delay, deriving it as half the RTT
// when only the RTT was supplied.
func (lp *LinkParameters) OneWayDelay() time.Duration {
	if lp.Delay != 0 {
		return lp.Delay.Duration()
	}
	return lp.RTT.Duration() / 2
}

// NodesConfig is the testbed addressing plan.
type NodesConfig struct {
	// Client is the client IPv4 address.
	Client string `yaml:"client"`

	// Server is the server IPv4 address.
	Server string `yaml:"server"`

	// RouterClientSide is the router address facing the client.
	RouterClientSide string `yaml:"router_client_side"`

	// RouterServerSide is the router address facing the server.
	RouterServerSide string `yaml:"router_server_side"`
}

// BottleneckConfig names the shaped interface.
type BottleneckConfig struct {
	// Interface is the router egress interface facing the server.
	Interface string `yaml:"interface"`
}

// ProbeConfig configures the connect-RTT probe.
type ProbeConfig struct {
	// Count is the number of samples to collect.
	Count int `yaml:"count"`

	// Interval is the pause between samples.
	Interval Duration `yaml:"interval"`
}

// BlastConfig configures the throughput measurement.
type BlastConfig struct {
	// Port is the TCP port the blast server listens on.
	Port int `yaml:"port"`

	// Duration bounds the measurement runtime.
	Duration Duration `yaml:"duration"`
}

// LoadConfig reads, parses, and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var config Config
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return nil, err
	}
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SetDefaults fills the unset fields with their default values.
func (c *Config) SetDefaults() {
	if c.PacketSizeBytes == 0 {
		c.PacketSizeBytes = DefaultPacketSizeBytes
	}
	if c.QueueBDPMultiplier == 0 {
		c.QueueBDPMultiplier = DefaultQueueBDPMultiplier
	}
	if c.Nodes.Client == "" {
		c.Nodes.Client = defaultClientAddress
	}
	if c.Nodes.Server == "" {
		c.Nodes.Server = defaultServerAddress
	}
	if c.Nodes.RouterClientSide == "" {
		c.Nodes.RouterClientSide = defaultRouterClientAddress
	}
	if c.Nodes.RouterServerSide == "" {
		c.Nodes.RouterServerSide = defaultRouterServerAddress
	}
	if c.Bottleneck.Interface == "" {
		c.Bottleneck.Interface = defaultBottleneckInterface
	}
	if c.Probe.Count == 0 {
		c.Probe.Count = defaultProbeCount
	}
	if c.Probe.Interval == 0 {
		c.Probe.Interval = Duration(defaultProbeInterval)
	}
	if c.Blast.Port == 0 {
		c.Blast.Port = defaultBlastPort
	}
	if c.Blast.Duration == 0 {
		c.Blast.Duration = Duration(defaultBlastDuration)
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Link.Delay != 0 && c.Link.RTT != 0 {
		return errors.New("link.delay and link.rtt are mutually exclusive")
	}
	if c.Link.Delay == 0 && c.Link.RTT == 0 {
		return errors.New("exactly one of link.delay and link.rtt is required")
	}
	if c.Link.Delay < 0 || c.Link.RTT < 0 {
		return errors.New("link delay values must not be negative")
	}
	c.Link.Rate = strings.TrimSpace(c.Link.Rate)
	if c.Link.Rate == "" {
		return errors.New("link.rate is required")
	}
	rateBits, err := ParseBandwidth(c.Link.Rate)
	if err != nil {
		return fmt.Errorf("link.rate: %w", err)
	}
	if rateBits == 0 {
		return errors.New("link.rate must be > 0")
	}
	c.Link.rateBits = rateBits
	if c.PacketSizeBytes <= 0 {
		return errors.New("packet_size must be > 0")
	}
	if c.QueueBDPMultiplier <= 0 {
		return errors.New("queue_bdp_multiplier must be > 0")
	}
	if c.Probe.Count <= 0 {
		return errors.New("probe.count must be > 0")
	}
	if c.Probe.Interval.Duration() <= 0 {
		return errors.New("probe.interval must be > 0")
	}
	if c.Blast.Port <= 0 || c.Blast.Port > 65535 {
		return errors.New("blast.port must be in 1..65535")
	}
	if c.Blast.Duration.Duration() <= 0 {
		return errors.New("blast.duration must be > 0")
	}
	return nil
}
