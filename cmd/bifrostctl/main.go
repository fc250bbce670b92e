// Package main provides bifrostctl, the operator CLI for Bifrost.
//
// It runs the decision core offline against local files, so operators can
// check where a user lands in an experiment or what a copy document resolves
// to before publishing it.
//
//	bifrostctl hash onboarding_cta_copy:1a2b3c_x9y8z7w6
//	bifrostctl assign --experiment onboarding_cta_copy --user 1a2b3c_x9y8z7w6
//	bifrostctl resolve --base copy.json --overrides overrides.json --path onboarding.index.cta_label
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bifrostctl",
		Short:         "Inspect Bifrost experiment bucketing and copy resolution",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		buildHashCmd(),
		buildAssignCmd(),
		buildExperimentsCmd(),
		buildResolveCmd(),
	)
	return root
}
