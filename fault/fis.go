package fault

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/fis"
	"github.com/aws/aws-sdk-go/service/fis/fisiface"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/rakutentech/fleetbench/config"
)

const ec2InstanceResourceType = "aws:ec2:instance"

// FISStarter runs AWS Fault Injection Simulator experiment templates. When a
// target name is configured the template's instance target is pointed at the
// selected instances before the experiment starts.
type FISStarter struct {
	client     fisiface.FISAPI
	region     string
	accountID  string
	targetName string
	newToken   func() string
}

func NewFISStarter(sess client.ConfigProvider, ac *config.AWSConfig) *FISStarter {
	return &FISStarter{
		client:     fis.New(sess),
		region:     ac.Region,
		accountID:  ac.AccountID,
		targetName: ac.FISTargetName,
		newToken:   uuid.NewString,
	}
}

func (f *FISStarter) instanceARNs(ids []string) []string {
	arns := make([]string, 0, len(ids))
	for _, id := range ids {
		arns = append(arns, fmt.Sprintf("arn:aws:ec2:%s:%s:instance/%s", f.region, f.accountID, id))
	}
	return arns
}

func (f *FISStarter) experimentARN(id string) string {
	if f.accountID == "" || f.region == "" {
		return id
	}
	return fmt.Sprintf("arn:aws:fis:%s:%s:experiment/%s", f.region, f.accountID, id)
}

func (f *FISStarter) retarget(ctx context.Context, req ExperimentRequest) error {
	if f.targetName == "" {
		return nil
	}
	if f.accountID == "" || f.region == "" {
		log.Warnf("Template %s keeps its own targets, account or region is not configured", req.TemplateID)
		return nil
	}
	_, err := f.client.UpdateExperimentTemplateWithContext(ctx, &fis.UpdateExperimentTemplateInput{
		Id: aws.String(req.TemplateID),
		Targets: map[string]*fis.UpdateExperimentTemplateTargetInput{
			f.targetName: {
				ResourceType:  aws.String(ec2InstanceResourceType),
				ResourceArns:  aws.StringSlice(f.instanceARNs(req.TargetInstanceIDs)),
				SelectionMode: aws.String("ALL"),
			},
		},
	})
	return errors.Wrapf(err, "update experiment template %s targets", req.TemplateID)
}

func (f *FISStarter) StartExperiment(ctx context.Context, req ExperimentRequest) (*Experiment, error) {
	if err := f.retarget(ctx, req); err != nil {
		return nil, err
	}
	out, err := f.client.StartExperimentWithContext(ctx, &fis.StartExperimentInput{
		ClientToken:          aws.String(f.newToken()),
		ExperimentTemplateId: aws.String(req.TemplateID),
		Tags:                 aws.StringMap(req.Tags),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "start experiment from template %s", req.TemplateID)
	}
	if out.Experiment == nil {
		return nil, errors.Errorf("start experiment from template %s returned no experiment", req.TemplateID)
	}
	exp := &Experiment{ID: aws.StringValue(out.Experiment.Id)}
	if out.Experiment.State != nil {
		exp.State = aws.StringValue(out.Experiment.State.Status)
	}
	exp.ARN = f.experimentARN(exp.ID)
	return exp, nil
}
