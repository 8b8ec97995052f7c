// Package cmd holds the ekstool command tree. ekstool is the operator-side
// companion to the gateway: it resolves cluster connection details and mints
// the same IAM bearer tokens the gateway uses, without touching a kubeconfig.
package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kubeflight/eks-gateway/pkg/config"
)

type runtimeState struct {
	clusterName string
	region      string
	writer      io.Writer
}

func (rt *runtimeState) resolve() error {
	// Flags win; the gateway's config file and env vars fill the gaps.
	if rt.clusterName != "" && rt.region != "" {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if rt.clusterName == "" {
		rt.clusterName = cfg.Cluster.Name
	}
	if rt.region == "" {
		rt.region = cfg.Cluster.Region
	}
	return nil
}

func NewRootCommand() *cobra.Command {
	rt := &runtimeState{writer: os.Stdout}

	root := &cobra.Command{
		Use:           "ekstool",
		Short:         "EKS gateway companion CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rt.clusterName, "cluster", "", "EKS cluster name (defaults to gateway config)")
	root.PersistentFlags().StringVar(&rt.region, "region", "", "AWS region (defaults to gateway config)")

	root.AddCommand(
		NewClusterInfoCommand(rt),
		NewTokenCommand(rt),
		NewVersionCommand(rt),
	)

	return root
}
