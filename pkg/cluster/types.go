package cluster

import (
	"time"
)

// MaxTokenTTL is the contractual upper bound on bearer token validity.
// Presigned STS tokens are accepted by EKS for at most 15 minutes; callers
// must never assume a longer window.
const MaxTokenTTL = 15 * time.Minute

// Identity names the target cluster. It is supplied once at process
// configuration time and never mutated.
type Identity struct {
	Name   string
	Region string
}

// Validate reports whether both identity fields are present.
func (id Identity) Validate() error {
	if id.Name == "" || id.Region == "" {
		return ErrConfigurationMissing
	}
	return nil
}

// EndpointInfo holds the resolved API server endpoint and the decoded CA
// certificate (PEM bytes). Endpoint and CA rarely change but are refetched
// on every session rebuild.
type EndpointInfo struct {
	Endpoint      string
	CACertificate []byte
}

// BearerToken is a short-lived credential proving the caller's IAM identity
// to the cluster API server. Possession authorizes acting as that identity;
// the value must never be logged in full.
type BearerToken struct {
	Value    string
	IssuedAt time.Time
	TTL      time.Duration
}

// ExpiresAt returns the approximate expiry instant of the token.
func (t BearerToken) ExpiresAt() time.Time {
	return t.IssuedAt.Add(t.TTL)
}

// Redacted returns a log-safe representation: a bounded prefix plus length.
func (t BearerToken) Redacted() string {
	const keep = 12
	if len(t.Value) <= keep {
		return "<redacted>"
	}
	return t.Value[:keep] + "..."
}
