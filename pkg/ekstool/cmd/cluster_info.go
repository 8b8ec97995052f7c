package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kubeflight/eks-gateway/pkg/cluster"
)

type clusterInfo struct {
	Cluster  string `json:"cluster"`
	Region   string `json:"region"`
	Endpoint string `json:"endpoint"`
	CABytes  int    `json:"caBytes"`
}

// NewClusterInfoCommand resolves and prints the cluster's endpoint and the
// size of its CA bundle. The CA itself is never printed.
func NewClusterInfoCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "cluster-info",
		Short: "Show the resolved API endpoint of the target cluster",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.resolve(); err != nil {
				return err
			}
			ctx := cmd.Context()

			aws, err := cluster.NewAWSClients(ctx, rt.region)
			if err != nil {
				return err
			}
			locator := cluster.NewLocator(aws.EKS, zap.NewNop().Sugar())

			info, err := locator.Locate(ctx, cluster.Identity{Name: rt.clusterName, Region: rt.region})
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(rt.writer)
			encoder.SetIndent("", "  ")
			return encoder.Encode(clusterInfo{
				Cluster:  rt.clusterName,
				Region:   rt.region,
				Endpoint: info.Endpoint,
				CABytes:  len(info.CACertificate),
			})
		},
	}
}
