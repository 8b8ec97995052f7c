package cluster

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseks "github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/kubeflight/eks-gateway/pkg/metrics"
)

// DescribeClusterAPI is the slice of the EKS control-plane client the locator
// needs. *awseks.Client satisfies it.
type DescribeClusterAPI interface {
	DescribeCluster(ctx context.Context, params *awseks.DescribeClusterInput, optFns ...func(*awseks.Options)) (*awseks.DescribeClusterOutput, error)
}

// Locator resolves a cluster's API endpoint and CA trust anchor from the AWS
// control plane. It has no side effects beyond the outbound DescribeCluster
// call and keeps no state; freshness decisions belong to the session builder.
type Locator struct {
	client DescribeClusterAPI
	log    *zap.SugaredLogger
}

func NewLocator(client DescribeClusterAPI, log *zap.SugaredLogger) *Locator {
	return &Locator{client: client, log: log.Named("locator")}
}

// Locate fetches the endpoint URL and decoded CA certificate for the cluster.
func (l *Locator) Locate(ctx context.Context, id Identity) (*EndpointInfo, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	out, err := l.client.DescribeCluster(ctx, &awseks.DescribeClusterInput{
		Name: aws.String(id.Name),
	})
	if err != nil {
		metrics.ClusterLookups.WithLabelValues("error").Inc()
		return nil, classifyDescribeError(err, id)
	}

	c := out.Cluster
	if c == nil || c.Endpoint == nil || *c.Endpoint == "" {
		metrics.ClusterLookups.WithLabelValues("malformed").Inc()
		return nil, fmt.Errorf("%w: describe response for %q carries no endpoint", ErrMalformedResponse, id.Name)
	}
	if c.CertificateAuthority == nil || c.CertificateAuthority.Data == nil || *c.CertificateAuthority.Data == "" {
		metrics.ClusterLookups.WithLabelValues("malformed").Inc()
		return nil, fmt.Errorf("%w: describe response for %q carries no certificate authority data", ErrMalformedResponse, id.Name)
	}

	caPEM, err := base64.StdEncoding.DecodeString(*c.CertificateAuthority.Data)
	if err != nil {
		metrics.ClusterLookups.WithLabelValues("malformed").Inc()
		return nil, fmt.Errorf("%w: certificate authority data is not valid base64: %v", ErrInvalidTrustMaterial, err)
	}

	metrics.ClusterLookups.WithLabelValues("success").Inc()
	l.log.Debugw("Resolved cluster endpoint",
		"cluster", id.Name,
		"region", id.Region,
		"endpoint", aws.ToString(c.Endpoint),
		"caBytes", len(caPEM))

	return &EndpointInfo{
		Endpoint:      aws.ToString(c.Endpoint),
		CACertificate: caPEM,
	}, nil
}

// classifyDescribeError maps AWS SDK failures onto the bootstrap taxonomy,
// following the code-switch style of awsctl's EKS adapter.
func classifyDescribeError(err error, id Identity) error {
	var notFound *ekstypes.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: no cluster %q in region %s", ErrClusterNotFound, id.Name, id.Region)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException" {
		return fmt.Errorf("%w: no cluster %q in region %s", ErrClusterNotFound, id.Name, id.Region)
	}

	// Throttling, auth failures against the control plane, and plain network
	// errors are all transient from the session's point of view.
	return fmt.Errorf("%w: describing cluster %q: %v", ErrUpstreamUnavailable, id.Name, err)
}
