package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaeljc/bifrost/internal/experiment"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := buildRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestBuildRootCmdIncludesSubcommands(t *testing.T) {
	t.Parallel()

	names := map[string]bool{}
	for _, sub := range buildRootCmd().Commands() {
		names[sub.Name()] = true
	}
	for _, name := range []string{"hash", "assign", "experiments", "resolve"} {
		assert.True(t, names[name], "missing subcommand %q", name)
	}
}

func TestHashCmd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"a", "177604"},
		{"abc", "193409669"},
		{"onboarding_cta_copy:user-1", "2863200698"},
	}
	for _, tt := range tests {
		out, err := execute(t, "hash", tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.want, strings.TrimSpace(out))
	}
}

func TestAssignCmd(t *testing.T) {
	t.Parallel()

	t.Run("Built-in registry", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "assign", "-e", experiment.OnboardingCTACopy, "-u", "user-1", "-u", "user-2")

		require.NoError(t, err)
		def, _ := experiment.DefaultRegistry().Lookup(experiment.OnboardingCTACopy)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.Contains(t, lines[1], "2863200698")
		assert.True(t, strings.HasSuffix(lines[1], experiment.VariantFor(def, "user-1")))
		assert.True(t, strings.HasSuffix(lines[2], experiment.VariantFor(def, "user-2")))
	})

	t.Run("Registry file", func(t *testing.T) {
		t.Parallel()

		reg := writeTemp(t, "experiments.yaml", `
experiments:
  - id: exp
    enabled: true
    variants:
      - {name: even, weight: 1}
      - {name: odd, weight: 1}
`)

		out, err := execute(t, "assign", "--registry", reg, "-e", "exp", "-u", "user-0")

		require.NoError(t, err)
		assert.Contains(t, out, "even")
	})

	t.Run("Unknown experiment", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "assign", "-e", "nope", "-u", "user-1")

		assert.ErrorContains(t, err, "unknown experiment")
	})

	t.Run("Missing flags", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "assign", "-e", experiment.OnboardingCTACopy)

		assert.Error(t, err)
	})
}

func TestExperimentsCmd(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "experiments")

	require.NoError(t, err)
	assert.Contains(t, out, experiment.OnboardingCTACopy)
	assert.Contains(t, out, "control=1, variant_a=1")
}

func TestResolveCmd(t *testing.T) {
	t.Parallel()

	base := writeTemp(t, "copy.json", `{
  "en": {"onboarding": {"index": {"cta_label": "Get started", "title": "Welcome"}},
         "i18n_overrides": {"onboarding:index_button_cta_text": "Start now"}},
  "pt": {"onboarding": {"index": {"cta_label": "Comecar"}}}
}`)
	overrides := writeTemp(t, "overrides.json", `{"en": {"onboarding": {"index": {"cta_label": "Let's go"}}}}`)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"override wins", []string{"--path", "onboarding.index.cta_label"}, "Let's go"},
		{"base kept", []string{"--path", "onboarding.index.title"}, "Welcome"},
		{"fallback", []string{"--path", "onboarding.index.missing", "--fallback", "Continue"}, "Continue"},
		{"explicit language", []string{"--path", "onboarding.index.cta_label", "--lang", "pt"}, "Comecar"},
		{"locale", []string{"--path", "onboarding.index.cta_label", "--locale", "pt_BR"}, "Comecar"},
		{"flat key", []string{"--key", "onboarding:index_button_cta_text"}, "Start now"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"resolve", "--base", base, "--overrides", overrides}, tt.args...)
			out, err := execute(t, args...)

			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
		})
	}

	t.Run("Raw value", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "resolve", "--base", base, "--overrides", overrides, "--path", "onboarding.index", "--raw")

		require.NoError(t, err)
		assert.JSONEq(t, `{"cta_label":"Let's go","title":"Welcome"}`, out)
	})

	t.Run("Invalid document", func(t *testing.T) {
		t.Parallel()

		bad := writeTemp(t, "bad.json", `{"en":`)

		_, err := execute(t, "resolve", "--base", bad, "--path", "x")

		assert.ErrorContains(t, err, "invalid base document")
	})

	t.Run("Path or key required", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "resolve", "--base", base)

		assert.Error(t, err)
	})
}
