package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kubeflight/eks-gateway/pkg/version"
)

func NewVersionCommand(rt *runtimeState) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show ekstool version",
		RunE: func(_ *cobra.Command, _ []string) error {
			info := version.GetBuildInfo()

			if outputFormat == "json" {
				encoder := json.NewEncoder(rt.writer)
				encoder.SetIndent("", "  ")
				return encoder.Encode(info)
			}
			_, err := fmt.Fprintf(rt.writer, "ekstool %s (commit: %s, built: %s)\n", info.Version, info.GitCommit, info.BuildDate)
			return err
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: json")

	return cmd
}
