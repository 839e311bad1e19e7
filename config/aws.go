package config

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
)

// GetAWSSession builds the session shared by the auto scaling and FIS clients.
// Credentials come from the default provider chain.
func GetAWSSession(ac *AWSConfig) (*session.Session, error) {
	cfg := aws.NewConfig()
	if ac.Region != "" {
		cfg = cfg.WithRegion(ac.Region)
	}
	return session.NewSessionWithOptions(session.Options{
		Config:            *cfg,
		SharedConfigState: session.SharedConfigEnable,
	})
}
