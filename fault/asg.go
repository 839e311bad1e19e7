package fault

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/autoscaling"
	"github.com/aws/aws-sdk-go/service/autoscaling/autoscalingiface"
	"github.com/pkg/errors"
)

// ASGTopology reads fleet membership from an EC2 auto scaling group.
type ASGTopology struct {
	client autoscalingiface.AutoScalingAPI
}

func NewASGTopology(sess client.ConfigProvider) *ASGTopology {
	return &ASGTopology{client: autoscaling.New(sess)}
}

func (a *ASGTopology) DescribeFleet(ctx context.Context, name string) ([]Instance, error) {
	out, err := a.client.DescribeAutoScalingGroupsWithContext(ctx, &autoscaling.DescribeAutoScalingGroupsInput{
		AutoScalingGroupNames: []*string{aws.String(name)},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "describe auto scaling group %s", name)
	}
	if len(out.AutoScalingGroups) == 0 {
		return nil, errors.Wrapf(ErrFleetNotFound, "auto scaling group %s", name)
	}
	instances := []Instance{}
	for _, g := range out.AutoScalingGroups {
		for _, i := range g.Instances {
			instances = append(instances, Instance{
				InstanceID:     aws.StringValue(i.InstanceId),
				LifecycleState: aws.StringValue(i.LifecycleState),
				HealthStatus:   aws.StringValue(i.HealthStatus),
			})
		}
	}
	return instances, nil
}
