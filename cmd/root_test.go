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

	expected := []string{"discover", "serve", "jobs", "leads", "verify"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "discover-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestDiscoverCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"limit", "country", "mode", "split", "threshold", "out", "notion", "owner"} {
		assert.NotNil(t, discoverCmd.Flags().Lookup(flagName), "discover should have --%s flag", flagName)
	}

	limit := discoverCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "10", limit.DefValue)

	mode := discoverCmd.Flags().Lookup("mode")
	require.NotNil(t, mode)
	assert.Equal(t, "hybrid", mode.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestJobsCommand_HasCancel(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range jobsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["cancel"])

	for _, flagName := range []string{"status", "user", "limit"} {
		assert.NotNil(t, jobsCmd.Flags().Lookup(flagName), "jobs should have --%s flag", flagName)
	}
}

func TestLeadsCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"owner", "min-score", "limit", "out"} {
		assert.NotNil(t, leadsCmd.Flags().Lookup(flagName), "leads should have --%s flag", flagName)
	}
}
