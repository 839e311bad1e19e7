package fault

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/autoscaling"
	"github.com/aws/aws-sdk-go/service/autoscaling/autoscalingiface"
	"github.com/aws/aws-sdk-go/service/fis"
	"github.com/aws/aws-sdk-go/service/fis/fisiface"
	"github.com/stretchr/testify/assert"
	apiv1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

type fakeAutoScaling struct {
	autoscalingiface.AutoScalingAPI
	out *autoscaling.DescribeAutoScalingGroupsOutput
	err error
	in  *autoscaling.DescribeAutoScalingGroupsInput
}

func (f *fakeAutoScaling) DescribeAutoScalingGroupsWithContext(ctx aws.Context, in *autoscaling.DescribeAutoScalingGroupsInput, _ ...request.Option) (*autoscaling.DescribeAutoScalingGroupsOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestASGTopology(t *testing.T) {
	client := &fakeAutoScaling{out: &autoscaling.DescribeAutoScalingGroupsOutput{
		AutoScalingGroups: []*autoscaling.Group{{
			AutoScalingGroupName: aws.String("asg-gpu-1"),
			Instances: []*autoscaling.Instance{
				{InstanceId: aws.String("i-0002"), LifecycleState: aws.String("InService"), HealthStatus: aws.String("Healthy")},
				{InstanceId: aws.String("i-0001"), LifecycleState: aws.String("Pending"), HealthStatus: aws.String("Healthy")},
			},
		}},
	}}
	topology := &ASGTopology{client: client}
	instances, err := topology.DescribeFleet(context.Background(), "asg-gpu-1")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []string{"asg-gpu-1"}, aws.StringValueSlice(client.in.AutoScalingGroupNames))
	assert.Equal(t, []Instance{
		{InstanceID: "i-0002", LifecycleState: LifecycleInService, HealthStatus: HealthHealthy},
		{InstanceID: "i-0001", LifecycleState: "Pending", HealthStatus: HealthHealthy},
	}, instances)
}

func TestASGTopologyErrors(t *testing.T) {
	topology := &ASGTopology{client: &fakeAutoScaling{out: &autoscaling.DescribeAutoScalingGroupsOutput{}}}
	_, err := topology.DescribeFleet(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrFleetNotFound))

	cause := errors.New("access denied")
	topology = &ASGTopology{client: &fakeAutoScaling{err: cause}}
	_, err = topology.DescribeFleet(context.Background(), "asg")
	assert.True(t, errors.Is(err, cause))
}

type fakeFIS struct {
	fisiface.FISAPI
	updates []*fis.UpdateExperimentTemplateInput
	starts  []*fis.StartExperimentInput
}

func (f *fakeFIS) UpdateExperimentTemplateWithContext(ctx aws.Context, in *fis.UpdateExperimentTemplateInput, _ ...request.Option) (*fis.UpdateExperimentTemplateOutput, error) {
	f.updates = append(f.updates, in)
	return &fis.UpdateExperimentTemplateOutput{}, nil
}

func (f *fakeFIS) StartExperimentWithContext(ctx aws.Context, in *fis.StartExperimentInput, _ ...request.Option) (*fis.StartExperimentOutput, error) {
	f.starts = append(f.starts, in)
	return &fis.StartExperimentOutput{Experiment: &fis.Experiment{
		Id:    aws.String("EXP9"),
		State: &fis.ExperimentState{Status: aws.String("initiating")},
	}}, nil
}

func TestFISStarter(t *testing.T) {
	client := &fakeFIS{}
	starter := &FISStarter{
		client:     client,
		region:     "us-east-1",
		accountID:  "123456789012",
		targetName: "gpu-instances",
		newToken:   func() string { return "token-1" },
	}
	exp, err := starter.StartExperiment(context.Background(), ExperimentRequest{
		TemplateID:        "EXT123",
		TargetInstanceIDs: []string{"i-0001"},
		Tags:              map[string]string{"asg_name": "asg-gpu-1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "EXP9", exp.ID)
	assert.Equal(t, "initiating", exp.State)
	assert.Equal(t, "arn:aws:fis:us-east-1:123456789012:experiment/EXP9", exp.ARN)

	assert.Equal(t, 1, len(client.updates))
	target := client.updates[0].Targets["gpu-instances"]
	assert.Equal(t, []string{"arn:aws:ec2:us-east-1:123456789012:instance/i-0001"}, aws.StringValueSlice(target.ResourceArns))
	assert.Equal(t, 1, len(client.starts))
	assert.Equal(t, "token-1", aws.StringValue(client.starts[0].ClientToken))
	assert.Equal(t, "EXT123", aws.StringValue(client.starts[0].ExperimentTemplateId))
	assert.Equal(t, "asg-gpu-1", aws.StringValue(client.starts[0].Tags["asg_name"]))
}

func TestFISStarterWithoutTarget(t *testing.T) {
	client := &fakeFIS{}
	starter := &FISStarter{client: client, newToken: func() string { return "t" }}
	exp, err := starter.StartExperiment(context.Background(), ExperimentRequest{TemplateID: "EXT1"})
	assert.NoError(t, err)
	assert.Empty(t, client.updates)
	assert.Equal(t, "EXP9", exp.ARN)
}

func gpuNode(name, providerID string, ready, unschedulable bool) *apiv1.Node {
	status := apiv1.ConditionFalse
	if ready {
		status = apiv1.ConditionTrue
	}
	return &apiv1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: name, Labels: map[string]string{"fleetbench.io/fleet": "gpu-a10"}},
		Spec:       apiv1.NodeSpec{ProviderID: providerID, Unschedulable: unschedulable},
		Status: apiv1.NodeStatus{Conditions: []apiv1.NodeCondition{
			{Type: apiv1.NodeReady, Status: status, LastHeartbeatTime: metav1.NewTime(time.Now())},
		}},
	}
}

func TestNodeTopology(t *testing.T) {
	other := &apiv1.Node{ObjectMeta: metav1.ObjectMeta{Name: "cpu-1", Labels: map[string]string{"fleetbench.io/fleet": "cpu"}}}
	client := fake.NewSimpleClientset(
		gpuNode("gpu-1", "aws:///us-east-1a/i-0aaa", true, false),
		gpuNode("gpu-2", "", false, false),
		gpuNode("gpu-3", "aws:///us-east-1b/i-0ccc", true, true),
		other,
	)
	topology := NewNodeTopology(client, "fleetbench.io/fleet")
	instances, err := topology.DescribeFleet(context.Background(), "gpu-a10")
	if err != nil {
		t.Fatal(err)
	}
	byID := map[string]Instance{}
	for _, i := range instances {
		byID[i.InstanceID] = i
	}
	assert.Equal(t, 3, len(instances))
	assert.Equal(t, Instance{InstanceID: "i-0aaa", LifecycleState: LifecycleInService, HealthStatus: HealthHealthy}, byID["i-0aaa"])
	assert.Equal(t, healthUnhealthy, byID["gpu-2"].HealthStatus)
	assert.Equal(t, lifecycleCordoned, byID["i-0ccc"].LifecycleState)
}
