package cluster

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	awssts "github.com/aws/aws-sdk-go-v2/service/sts"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"go.uber.org/zap"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	clientauthv1beta1 "k8s.io/client-go/pkg/apis/clientauthentication/v1beta1"

	"github.com/kubeflight/eks-gateway/pkg/metrics"
)

const (
	// clusterIDHeader scopes the presigned STS request to one cluster; the
	// API server rejects tokens signed for a different cluster name.
	clusterIDHeader = "x-k8s-aws-id"

	// tokenPrefixV1 is the prefix of tokens produced by the presigned-URL
	// scheme in use today.
	tokenPrefixV1 = "k8s-aws-v1."

	// presignExpirySeconds is the validity window requested for the
	// presigned URL, matching what the EKS API server accepts.
	presignExpirySeconds = "900"
)

// knownTokenPrefixes are the structural prefixes a minted token may carry.
// Anything else is treated as a signing-scheme mismatch.
var knownTokenPrefixes = []string{tokenPrefixV1, "k8s-aws4-"}

// CredentialSigner produces an ExecCredential scoped to a cluster name.
// The production implementation presigns an STS GetCallerIdentity request;
// tests substitute canned credentials.
type CredentialSigner interface {
	Sign(ctx context.Context, clusterName string) (*clientauthv1beta1.ExecCredential, error)
}

// STSPresignSigner mints ExecCredentials by presigning STS GetCallerIdentity
// with the cluster-scoping header. The signature proves possession of the
// ambient AWS credentials without ever transmitting them.
type STSPresignSigner struct {
	presigner *awssts.PresignClient
}

func NewSTSPresignSigner(presigner *awssts.PresignClient) *STSPresignSigner {
	return &STSPresignSigner{presigner: presigner}
}

func (s *STSPresignSigner) Sign(ctx context.Context, clusterName string) (*clientauthv1beta1.ExecCredential, error) {
	issued := time.Now()

	out, err := s.presigner.PresignGetCallerIdentity(ctx, &awssts.GetCallerIdentityInput{},
		func(po *awssts.PresignOptions) {
			po.ClientOptions = append(po.ClientOptions, func(o *awssts.Options) {
				o.APIOptions = append(o.APIOptions,
					smithyhttp.SetHeaderValue(clusterIDHeader, clusterName),
					smithyhttp.SetHeaderValue("X-Amz-Expires", presignExpirySeconds),
				)
			})
		})
	if err != nil {
		return nil, fmt.Errorf("presigning STS GetCallerIdentity: %w", err)
	}

	// The expiration reported to callers is held one minute short of the
	// presign window so a token is never presented right at its edge.
	expiry := metav1.NewTime(issued.Add(MaxTokenTTL - time.Minute))

	return &clientauthv1beta1.ExecCredential{
		TypeMeta: metav1.TypeMeta{
			Kind:       "ExecCredential",
			APIVersion: clientauthv1beta1.SchemeGroupVersion.String(),
		},
		Status: &clientauthv1beta1.ExecCredentialStatus{
			ExpirationTimestamp: &expiry,
			Token:               tokenPrefixV1 + base64.RawURLEncoding.EncodeToString([]byte(out.URL)),
		},
	}, nil
}

// TokenMinter turns signer output into a validated BearerToken. Every call
// performs a fresh mint; caching belongs to the session provider, not here.
//
// The signer hands back a structured ExecCredential, never a bare string.
// The minter unwraps it defensively: a credential with a missing status or
// empty token fails loudly instead of leaking a garbage value downstream.
type TokenMinter struct {
	signer CredentialSigner
	log    *zap.SugaredLogger
	now    func() time.Time
}

func NewTokenMinter(signer CredentialSigner, log *zap.SugaredLogger) *TokenMinter {
	return &TokenMinter{signer: signer, log: log.Named("minter"), now: time.Now}
}

// Mint produces a short-lived bearer token for the identity's cluster.
func (m *TokenMinter) Mint(ctx context.Context, id Identity) (BearerToken, error) {
	if err := id.Validate(); err != nil {
		return BearerToken{}, err
	}

	cred, err := m.signer.Sign(ctx, id.Name)
	if err != nil {
		metrics.TokenMints.WithLabelValues("error").Inc()
		return BearerToken{}, fmt.Errorf("%w: %v", ErrTokenMintFailed, err)
	}

	token, err := unwrapExecCredential(cred)
	if err != nil {
		metrics.TokenMints.WithLabelValues("invalid").Inc()
		m.log.Errorw("Signer returned unusable credential", "cluster", id.Name, "error", err)
		return BearerToken{}, err
	}

	issued := m.now()
	ttl := MaxTokenTTL
	if exp := cred.Status.ExpirationTimestamp; exp != nil {
		remaining := exp.Time.Sub(issued)
		if remaining <= 0 {
			metrics.TokenMints.WithLabelValues("invalid").Inc()
			return BearerToken{}, fmt.Errorf("%w: credential expired at mint time (%s)", ErrTokenMintFailed, exp.Time.UTC().Format(time.RFC3339))
		}
		if remaining < ttl {
			ttl = remaining
		}
	}

	bt := BearerToken{Value: token, IssuedAt: issued, TTL: ttl}
	metrics.TokenMints.WithLabelValues("success").Inc()
	m.log.Infow("Minted bearer token",
		"cluster", id.Name,
		"tokenLength", len(token),
		"tokenPrefix", bt.Redacted(),
		"ttl", ttl.String())
	return bt, nil
}

// unwrapExecCredential validates credential shape and extracts the token.
func unwrapExecCredential(cred *clientauthv1beta1.ExecCredential) (string, error) {
	if cred == nil {
		return "", fmt.Errorf("%w: signer returned no credential", ErrTokenMintFailed)
	}
	if cred.Status == nil {
		return "", fmt.Errorf("%w: credential %s/%s carries no status", ErrTokenMintFailed, cred.APIVersion, cred.Kind)
	}
	token := cred.Status.Token
	if token == "" {
		return "", fmt.Errorf("%w: credential status carries an empty token", ErrTokenMintFailed)
	}
	for _, p := range knownTokenPrefixes {
		if strings.HasPrefix(token, p) {
			return token, nil
		}
	}
	return "", fmt.Errorf("%w: token does not match any known signing-scheme prefix (length %d)", ErrTokenMintFailed, len(token))
}
