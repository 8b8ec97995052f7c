// Package cluster implements the authentication bootstrap for a managed EKS
// cluster: discovering the API endpoint and CA trust anchor from the AWS
// control plane, minting short-lived IAM bearer tokens via STS presigning,
// and assembling the authenticated client session that all resource
// operations share. Kubeconfig files are never consulted; IAM-derived
// bearer authentication is the only scheme.
package cluster
