package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/kubeflight/eks-gateway/pkg/cluster"
)

// NewTokenCommand mints an IAM bearer token for the target cluster and
// prints it as an ExecCredential, the same document kubectl exec credential
// plugins emit. The output can feed a kubeconfig exec block directly.
func NewTokenCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Mint an IAM bearer token for the target cluster",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.resolve(); err != nil {
				return err
			}
			ctx := cmd.Context()

			aws, err := cluster.NewAWSClients(ctx, rt.region)
			if err != nil {
				return err
			}

			cred, err := cluster.NewSTSPresignSigner(aws.Presigner).Sign(ctx, rt.clusterName)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(rt.writer)
			encoder.SetIndent("", "  ")
			return encoder.Encode(cred)
		},
	}
}
