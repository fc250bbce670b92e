package main

import "github.com/spf13/cobra"

func buildHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <input>",
		Short: "Print the bucketing hash of a string",
		Long: `Print the 32-bit bucketing hash of the input.

The bucketing subject of an assignment is "<experiment_id>:<bucket_id>".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(cmd, args[0])
		},
	}
}

func buildAssignCmd() *cobra.Command {
	var (
		experimentID string
		users        []string
		registryPath string
	)

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Show the variant one or more bucket IDs are assigned",
		Example: `  # Built-in registry
  bifrostctl assign --experiment onboarding_cta_copy --user 1a2b3c_x9y8z7w6

  # Custom registry, several users
  bifrostctl assign -e paywall_layout -u a -u b --registry experiments.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssign(cmd, registryPath, experimentID, users)
		},
	}

	cmd.Flags().StringVarP(&experimentID, "experiment", "e", "", "Experiment ID")
	cmd.Flags().StringArrayVarP(&users, "user", "u", nil, "Bucket ID (repeatable)")
	cmd.Flags().StringVar(&registryPath, "registry", "", "YAML registry file (default: built-in definitions)")
	_ = cmd.MarkFlagRequired("experiment")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func buildExperimentsCmd() *cobra.Command {
	var (
		registryPath string
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:   "experiments",
		Short: "List and validate registry definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiments(cmd, registryPath, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&registryPath, "registry", "", "YAML registry file (default: built-in definitions)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output definitions as JSON")
	return cmd
}

type resolveOptions struct {
	basePath      string
	overridesPath string
	path          string
	key           string
	fallback      string
	lang          string
	locale        string
	raw           bool
}

func buildResolveCmd() *cobra.Command {
	var opts resolveOptions

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve copy from a base and an override document",
		Long: `Merge the override document onto the base document and resolve one entry.

Use --path for a dotted path under the language root, or --key for a flat
translation key in the i18n_overrides bucket. Without --lang the base
language of --locale is used.`,
		Example: `  bifrostctl resolve --base copy.json --overrides overrides.json \
    --path onboarding.index.cta_label --fallback "Continue"

  bifrostctl resolve --base copy.json --key onboarding:index_button_cta_text --lang pt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.basePath, "base", "", "Base copy document (JSON)")
	f.StringVar(&opts.overridesPath, "overrides", "", "Override copy document (JSON)")
	f.StringVar(&opts.path, "path", "", "Dotted path to resolve")
	f.StringVar(&opts.key, "key", "", "Flat translation key to resolve")
	f.StringVar(&opts.fallback, "fallback", "", "Value printed when nothing resolves")
	f.StringVar(&opts.lang, "lang", "", "Language root (default: base language of --locale)")
	f.StringVar(&opts.locale, "locale", "en-US", "Active locale tag")
	f.BoolVar(&opts.raw, "raw", false, "Print the structured value at --path as JSON")
	cmd.MarkFlagsMutuallyExclusive("path", "key")
	cmd.MarkFlagsOneRequired("path", "key")
	return cmd
}
