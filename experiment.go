package linklab

//
// Experiment plan assembly
//

import (
	"github.com/google/uuid"
)

// ExperimentPlan ties together everything needed to provision one
// experiment run: the testbed description for the emulator, the BDP
// sizing, the qdisc values for the bottleneck interface, and the
// observables the operator should verify afterwards.
type ExperimentPlan struct {
	// RunID uniquely identifies this run in logs and reports.
	RunID string

	// Topology is the testbed description.
	Topology *DumbbellTopology

	// Sizing is the BDP derivation.
	Sizing *Sizing

	// Qdisc is the bottleneck provisioning plan.
	Qdisc *QdiscPlan

	// Expectations are the predicted observables.
	Expectations *Expectations
}

// NewExperimentPlan derives the complete provisioning plan from a
// validated [Config]. Sizing warnings are logged through the given
// logger and carried by the plan's [Sizing].
func NewExperimentPlan(logger Logger, config *Config) (*ExperimentPlan, error) {
	sizing, err := ComputeBDPFromRTT(
		logger,
		config.Link.RoundTripTime(),
		float64(config.Link.RateBitsPerSec()),
		&SizingOptions{
			PacketSizeBytes:    config.PacketSizeBytes,
			QueueBDPMultiplier: config.QueueBDPMultiplier,
		},
	)
	if err != nil {
		return nil, err
	}

	topology, err := NewDumbbellTopology(&DumbbellConfig{
		ClientAddress:       config.Nodes.Client,
		ServerAddress:       config.Nodes.Server,
		RouterClientAddress: config.Nodes.RouterClientSide,
		RouterServerAddress: config.Nodes.RouterServerSide,
		DelayOneWay:         Duration(config.Link.OneWayDelay()),
		RateBitsPerSec:      config.Link.RateBitsPerSec(),
	})
	if err != nil {
		return nil, err
	}

	plan := &ExperimentPlan{
		RunID:    uuid.New().String(),
		Topology: topology,
		Sizing:   sizing,
		Qdisc: NewQdiscPlan(
			config.Bottleneck.Interface,
			config.Link.OneWayDelay(),
			config.Link.RateBitsPerSec(),
			sizing,
		),
		Expectations: PredictObservables(sizing),
	}
	return plan, nil
}
