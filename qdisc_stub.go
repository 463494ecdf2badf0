//go:build !linux

package linklab

//
// Queuing discipline provisioning: stub backend
//

import "errors"

// Apply is not supported on this platform: use [QdiscPlan.Commands]
// and run the rendered tc invocations on the router node instead.
func (p *QdiscPlan) Apply(logger Logger) error {
	return errors.New("linklab: applying qdiscs is only supported on linux")
}

// Cleanup is not supported on this platform.
func (p *QdiscPlan) Cleanup(logger Logger) error {
	return errors.New("linklab: applying qdiscs is only supported on linux")
}
