package cluster

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awseks "github.com/aws/aws-sdk-go-v2/service/eks"
	awssts "github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/pkg/errors"
)

// AWSClients bundles the two control-plane clients the bootstrap needs.
// Credentials are resolved from the ambient environment (instance role,
// environment variables, shared profile) by the SDK's default chain; the
// resolution order is an environment concern, not ours.
type AWSClients struct {
	EKS       *awseks.Client
	Presigner *awssts.PresignClient
}

// NewAWSClients loads the default AWS configuration for the given region and
// constructs the EKS and STS presign clients from it.
func NewAWSClients(ctx context.Context, region string) (*AWSClients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, "loading default AWS config")
	}
	return &AWSClients{
		EKS:       awseks.NewFromConfig(cfg),
		Presigner: awssts.NewPresignClient(awssts.NewFromConfig(cfg)),
	}, nil
}
