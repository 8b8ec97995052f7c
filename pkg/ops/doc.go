// Package ops implements the Job and Namespace operations the gateway
// exposes, plus their gin controllers. Every operation borrows a live
// ClusterSession from a SessionSource; an operation that observes an
// authentication rejection invalidates that session and retries exactly
// once against a rebuilt one.
package ops
