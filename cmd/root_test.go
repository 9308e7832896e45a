package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"estimate", "serve", "runs", "classes"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "carbon-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("log-level"))
}

func TestEstimateCommand_Flags(t *testing.T) {
	for _, name := range []string{"request", "boundary-shp", "boundary-geojson", "start", "end", "samples", "split", "thumbnails", "json", "export", "output-dir"} {
		assert.NotNil(t, estimateCmd.Flags().Lookup(name), "estimate should have --%s", name)
	}
	assert.Equal(t, "false", estimateCmd.Flags().Lookup("export").DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "stats"} {
		assert.True(t, names[name], "expected runs subcommand %q", name)
	}

	limit := runsListCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "50", limit.DefValue)
	assert.NotNil(t, runsListCmd.Flags().Lookup("since"))
}
