package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rafaeljc/bifrost/internal/copydoc"
	"github.com/rafaeljc/bifrost/internal/experiment"
	"github.com/rafaeljc/bifrost/internal/locale"
	"github.com/rafaeljc/bifrost/internal/logger"
)

func runHash(cmd *cobra.Command, input string) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), experiment.Hash(input))
	return err
}

func runAssign(cmd *cobra.Command, registryPath, experimentID string, users []string) error {
	reg, err := loadRegistry(registryPath)
	if err != nil {
		return err
	}

	def, ok := reg.Lookup(experimentID)
	if !ok {
		return fmt.Errorf("unknown experiment %q", experimentID)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tHASH\tVARIANT")
	for _, user := range users {
		fmt.Fprintf(w, "%s\t%d\t%s\n", user, experiment.Hash(experimentID+":"+user), experiment.VariantFor(def, user))
	}
	return w.Flush()
}

func runExperiments(cmd *cobra.Command, registryPath string, jsonOutput bool) error {
	reg, err := loadRegistry(registryPath)
	if err != nil {
		return err
	}

	defs := reg.List()
	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(defs)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tENABLED\tVARIANTS")
	for _, d := range defs {
		fmt.Fprintf(w, "%s\t%t\t", d.ID, d.Enabled)
		for i, v := range d.Variants {
			if i > 0 {
				fmt.Fprint(w, ", ")
			}
			fmt.Fprintf(w, "%s=%g", v.Name, v.Weight)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func runResolve(cmd *cobra.Command, opts resolveOptions) error {
	base, err := readOptional(opts.basePath)
	if err != nil {
		return err
	}
	overrides, err := readOptional(opts.overridesPath)
	if err != nil {
		return err
	}

	// Malformed documents degrade to empty layers at runtime; offline we report them.
	for name, raw := range map[string]string{"base": base, "overrides": overrides} {
		if _, err := copydoc.Parse(raw); err != nil {
			return fmt.Errorf("invalid %s document: %w", name, err)
		}
	}

	cache := copydoc.NewCache(logger.Nop())
	cache.Refresh(base, overrides)
	resolver := copydoc.NewResolver(cache, locale.Static(opts.locale))

	out := cmd.OutOrStdout()
	switch {
	case opts.key != "":
		_, err = fmt.Fprintln(out, resolver.ResolveByKey(opts.key, opts.fallback, opts.lang))
	case opts.raw:
		v := resolver.Lookup(opts.path, opts.lang)
		if !v.Exists() {
			return fmt.Errorf("nothing at path %q", opts.path)
		}
		var data []byte
		if data, err = json.MarshalIndent(v, "", "  "); err == nil {
			_, err = fmt.Fprintln(out, string(data))
		}
	default:
		_, err = fmt.Fprintln(out, resolver.ResolveCopy(opts.path, opts.fallback, opts.lang))
	}
	return err
}

func loadRegistry(path string) (*experiment.Registry, error) {
	if path == "" {
		return experiment.DefaultRegistry(), nil
	}
	return experiment.LoadRegistryFile(path)
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
