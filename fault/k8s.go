package fault

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	apiv1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

const (
	lifecycleCordoned    = "Standby"
	lifecycleTerminating = "Terminating"
	healthUnhealthy      = "Unhealthy"
)

// NodeTopology treats the nodes carrying <label>=<fleet> as the fleet, for
// GPU pools that are managed as Kubernetes node groups.
type NodeTopology struct {
	client kubernetes.Interface
	label  string
}

func NewNodeTopology(client kubernetes.Interface, label string) *NodeTopology {
	return &NodeTopology{client: client, label: label}
}

// instanceID prefers the cloud instance ID from the provider ID, e.g.
// aws:///us-east-1a/i-0abc, so experiments can target the backing machine.
func instanceID(node *apiv1.Node) string {
	pid := node.Spec.ProviderID
	if idx := strings.LastIndex(pid, "/"); idx >= 0 && idx < len(pid)-1 {
		return pid[idx+1:]
	}
	return node.Name
}

func nodeLifecycle(node *apiv1.Node) string {
	if node.DeletionTimestamp != nil {
		return lifecycleTerminating
	}
	if node.Spec.Unschedulable {
		return lifecycleCordoned
	}
	return LifecycleInService
}

func nodeHealth(node *apiv1.Node) string {
	for _, c := range node.Status.Conditions {
		if c.Type == apiv1.NodeReady && c.Status == apiv1.ConditionTrue {
			return HealthHealthy
		}
	}
	return healthUnhealthy
}

func (n *NodeTopology) DescribeFleet(ctx context.Context, name string) ([]Instance, error) {
	nodes, err := n.client.CoreV1().Nodes().List(ctx, metav1.ListOptions{
		LabelSelector: fmt.Sprintf("%s=%s", n.label, name),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list nodes of fleet %s", name)
	}
	instances := make([]Instance, 0, len(nodes.Items))
	for i := range nodes.Items {
		node := &nodes.Items[i]
		instances = append(instances, Instance{
			InstanceID:     instanceID(node),
			LifecycleState: nodeLifecycle(node),
			HealthStatus:   nodeHealth(node),
		})
	}
	return instances, nil
}
