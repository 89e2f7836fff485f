package aws

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

const (
	serviceAccountTokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"
	defaultProfile          = "default"
)

// LoadAWSConfig loads the default credential chain used by the KMS signing agent.
// Outside Kubernetes the shared config profile from AWS_PROFILE is used.
func LoadAWSConfig(ctx context.Context, regionOverride string) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx, loadOptions(regionOverride, inKubernetes(serviceAccountTokenPath))...)
}

func loadOptions(regionOverride string, kubernetes bool) []func(*config.LoadOptions) error {
	var options []func(*config.LoadOptions) error
	if !kubernetes {
		options = append(options, config.WithSharedConfigProfile(profile()))
	}
	if regionOverride != "" {
		options = append(options, config.WithRegion(regionOverride))
	}
	return options
}

func inKubernetes(tokenPath string) bool {
	_, err := os.Stat(tokenPath)
	return err == nil
}

func profile() string {
	if p := os.Getenv("AWS_PROFILE"); p != "" {
		return p
	}
	return defaultProfile
}

// CallerIdentity reports which principal the KMS agent will sign as.
type CallerIdentity struct {
	Account string
	Arn     string
	UserID  string
}

func GetCallerIdentity(ctx context.Context, cfg aws.Config) (*CallerIdentity, error) {
	out, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get caller identity: %w", err)
	}
	return &CallerIdentity{
		Account: aws.ToString(out.Account),
		Arn:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}, nil
}
