package fault

import (
	"fmt"
	"time"

	"github.com/rakutentech/fleetbench/config"
)

// NewInjectorFromConfig wires the topology named by fleet.provider to FIS.
// Experiments always go through FIS, only the instance listing changes.
func NewInjectorFromConfig(c *config.FleetbenchConfig) (*Injector, error) {
	sess, err := config.GetAWSSession(c.AWS)
	if err != nil {
		return nil, err
	}
	var topology FleetTopologyQuerier
	switch c.Fleet.Provider {
	case config.FleetProviderASG:
		topology = NewASGTopology(sess)
	case config.FleetProviderK8s:
		client, err := config.GetKubeClient(c.Fleet)
		if err != nil {
			return nil, err
		}
		topology = NewNodeTopology(client, c.Fleet.NodeLabel)
	default:
		return nil, fmt.Errorf("Unknown fleet provider %s, valid providers are %v", c.Fleet.Provider,
			[]string{config.FleetProviderASG, config.FleetProviderK8s})
	}
	timeout := time.Duration(c.Fault.TimeoutSeconds) * time.Second
	return NewInjector(topology, NewFISStarter(sess, c.AWS), timeout), nil
}
