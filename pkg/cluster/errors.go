package cluster

import "errors"

// Error kinds surfaced by the session bootstrap pipeline. Callers classify
// with errors.Is; the HTTP layer maps these onto response codes.
var (
	// ErrConfigurationMissing indicates the cluster identity (name or region)
	// was absent at the first build attempt. Fatal, not retryable.
	ErrConfigurationMissing = errors.New("cluster identity not configured")

	// ErrClusterNotFound indicates the AWS control plane has no cluster with
	// the configured name in the configured region.
	ErrClusterNotFound = errors.New("cluster not found")

	// ErrUpstreamUnavailable indicates a transient control-plane or network
	// failure. Eligible for caller-level retry with backoff.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMalformedResponse indicates a successful control-plane response was
	// missing required fields (endpoint URL or CA data).
	ErrMalformedResponse = errors.New("malformed control plane response")

	// ErrInvalidTrustMaterial indicates the cluster CA certificate could not
	// be decoded or parsed into a usable trust anchor.
	ErrInvalidTrustMaterial = errors.New("invalid trust material")

	// ErrTokenMintFailed indicates the signing exchange failed or returned a
	// credential of unusable shape.
	ErrTokenMintFailed = errors.New("token mint failed")

	// ErrAuthExpiredOrRejected indicates the cluster API rejected the current
	// bearer token even after a session rebuild. Retryable by the caller.
	ErrAuthExpiredOrRejected = errors.New("cluster authentication expired or rejected")

	// ErrBuildTimeout indicates a session build attempt exceeded its deadline.
	ErrBuildTimeout = errors.New("session build timed out")
)
