package control

import (
	"context"

	"nodemanager/internal/fleet"
	"nodemanager/internal/logger"
)

// Outcome records what happened to a single node during a dispatch.
// Failure carries the error text for serialised consumers.
type Outcome struct {
	Address string `json:"address"`
	Command string `json:"command"`
	Removed bool   `json:"removed"`
	Failure string `json:"failure,omitempty"`
	Err     error  `json:"-"`
}

// Dispatcher sends a fleet command to every selected node. Nodes run
// sequentially: control traffic is not latency-sensitive and sequential
// execution keeps failure isolation simple.
type Dispatcher struct {
	registry *fleet.Registry
	client   *Client
	log      logger.Logger
}

// NewDispatcher creates a dispatcher operating on the given registry.
func NewDispatcher(registry *fleet.Registry, client *Client) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		client:   client,
		log:      logger.NewEnvLogger("[dispatch]"),
	}
}

// Dispatch posts the command to every selected node. A node whose
// request completes at the transport level is assumed to be going down
// and is removed from the registry; a node that fails stays registered
// and selected, and the dispatch moves on. An empty registry or an
// empty selection is a benign no-op. The only error returned is an
// invalid command.
func (d *Dispatcher) Dispatch(ctx context.Context, command string) ([]Outcome, error) {
	if !ValidCommand(command) {
		return nil, ErrUnknownCommand
	}
	if d.registry.Len() == 0 {
		return nil, nil
	}

	var outcomes []Outcome
	for _, node := range d.registry.Snapshot() {
		if !node.Selected {
			continue
		}

		outcome := Outcome{Address: node.Address, Command: command}
		if err := d.client.SendCommand(ctx, node.Address, node.Port, command); err != nil {
			outcome.Err = err
			outcome.Failure = err.Error()
			d.log.Debug("%s of %s failed: %v", command, node.Address, err)
		} else {
			d.registry.Remove(node.Address)
			outcome.Removed = true
			d.log.Info("%s accepted by %s", command, node.Address)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}
