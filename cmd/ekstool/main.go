package main

import (
	"fmt"
	"os"

	ekstoolcmd "github.com/kubeflight/eks-gateway/pkg/ekstool/cmd"
)

func main() {
	root := ekstoolcmd.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
