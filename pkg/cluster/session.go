package cluster

import (
	"context"
	"crypto/x509"
	"fmt"
	"time"

	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"
	batchv1client "k8s.io/client-go/kubernetes/typed/batch/v1"
	corev1client "k8s.io/client-go/kubernetes/typed/core/v1"
	"k8s.io/client-go/rest"

	"github.com/kubeflight/eks-gateway/pkg/metrics"
)

// DefaultRequestTimeout bounds individual requests against the cluster API
// server unless the config overrides it.
const DefaultRequestTimeout = 30 * time.Second

// ClusterLocator resolves endpoint and trust material for a cluster.
type ClusterLocator interface {
	Locate(ctx context.Context, id Identity) (*EndpointInfo, error)
}

// Minter produces validated bearer tokens.
type Minter interface {
	Mint(ctx context.Context, id Identity) (BearerToken, error)
}

// ClientFactory turns an assembled rest.Config into a clientset. The default
// is kubernetes.NewForConfig; tests substitute fakes.
type ClientFactory func(cfg *rest.Config) (kubernetes.Interface, error)

// ClusterSession is the capability object all resource operations borrow.
// It exclusively owns its clientset; the batch and core sub-clients share
// the session's transport configuration and hold no credentials of their own.
type ClusterSession struct {
	identity Identity
	endpoint *EndpointInfo
	token    BearerToken
	client   kubernetes.Interface
}

// NewSession wraps an already-authenticated clientset. Production sessions
// come out of SessionBuilder.Build; this constructor exists for wiring fakes.
func NewSession(id Identity, endpoint *EndpointInfo, token BearerToken, client kubernetes.Interface) *ClusterSession {
	return &ClusterSession{identity: id, endpoint: endpoint, token: token, client: client}
}

// Batch returns the job-resource sub-client.
func (s *ClusterSession) Batch() batchv1client.BatchV1Interface {
	return s.client.BatchV1()
}

// Core returns the namespace-resource sub-client.
func (s *ClusterSession) Core() corev1client.CoreV1Interface {
	return s.client.CoreV1()
}

func (s *ClusterSession) Identity() Identity { return s.identity }

func (s *ClusterSession) Endpoint() string { return s.endpoint.Endpoint }

// Token returns the session's bearer token. Callers use it only for expiry
// inspection and redacted logging.
func (s *ClusterSession) Token() BearerToken { return s.token }

// SessionBuilder composes locator and minter into a ready ClusterSession.
// A build either fully succeeds or fully fails; a partially assembled
// session is never returned.
type SessionBuilder struct {
	locator        ClusterLocator
	minter         Minter
	newClient      ClientFactory
	requestTimeout time.Duration
	log            *zap.SugaredLogger
}

type BuilderOption func(*SessionBuilder)

// WithClientFactory replaces the clientset constructor, used by tests.
func WithClientFactory(f ClientFactory) BuilderOption {
	return func(b *SessionBuilder) { b.newClient = f }
}

// WithRequestTimeout bounds individual cluster API requests made through
// sessions this builder produces.
func WithRequestTimeout(d time.Duration) BuilderOption {
	return func(b *SessionBuilder) {
		if d > 0 {
			b.requestTimeout = d
		}
	}
}

func NewSessionBuilder(locator ClusterLocator, minter Minter, log *zap.SugaredLogger, opts ...BuilderOption) *SessionBuilder {
	b := &SessionBuilder{
		locator: locator,
		minter:  minter,
		newClient: func(cfg *rest.Config) (kubernetes.Interface, error) {
			return kubernetes.NewForConfig(cfg)
		},
		requestTimeout: DefaultRequestTimeout,
		log:            log.Named("session-builder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build runs the bootstrap pipeline: locate -> mint -> trust anchor ->
// transport assembly -> sub-clients. Each failure is attributed to the step
// that produced it and aborts the whole attempt.
func (b *SessionBuilder) Build(ctx context.Context, id Identity) (*ClusterSession, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	info, err := b.locator.Locate(ctx, id)
	if err != nil {
		metrics.SessionBuilds.WithLabelValues("locate_failed").Inc()
		return nil, fmt.Errorf("locating cluster: %w", err)
	}

	token, err := b.minter.Mint(ctx, id)
	if err != nil {
		metrics.SessionBuilds.WithLabelValues("mint_failed").Inc()
		return nil, fmt.Errorf("minting token: %w", err)
	}

	// The CA bytes were base64-decoded by the locator; they must still parse
	// as at least one PEM certificate before the TLS stack may trust them.
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(info.CACertificate) {
		metrics.SessionBuilds.WithLabelValues("trust_failed").Inc()
		return nil, fmt.Errorf("%w: CA data contains no parseable certificate (%d bytes)", ErrInvalidTrustMaterial, len(info.CACertificate))
	}

	// Bearer auth against the discovered endpoint is the only scheme. No
	// kubeconfig, exec plugin, or ambient credential fallback exists here.
	cfg := &rest.Config{
		Host:        info.Endpoint,
		BearerToken: token.Value,
		TLSClientConfig: rest.TLSClientConfig{
			CAData: info.CACertificate,
		},
		Timeout: b.requestTimeout,
	}

	client, err := b.newClient(cfg)
	if err != nil {
		metrics.SessionBuilds.WithLabelValues("client_failed").Inc()
		return nil, fmt.Errorf("constructing cluster clients for %s: %v", info.Endpoint, err)
	}

	metrics.SessionBuilds.WithLabelValues("success").Inc()
	metrics.SessionBuildDuration.Observe(time.Since(start).Seconds())
	b.log.Infow("Cluster session built",
		"cluster", id.Name,
		"region", id.Region,
		"endpoint", info.Endpoint,
		"tokenExpiresAt", token.ExpiresAt().UTC().Format(time.RFC3339))

	return NewSession(id, info, token, client), nil
}
