package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "aads", cmd.Use)
	assert.Contains(t, cmd.Long, "Atlantic Armwrestling")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"init"},
		{"player", "add"},
		{"player", "history"},
		{"players"},
		{"prospects"},
		{"candidates"},
		{"events"},
		{"event", "show"},
		{"event", "add-player"},
		{"event", "winner"},
		{"event", "status"},
		{"event", "placement"},
		{"event", "date"},
		{"sync", "push"},
		{"sync", "pull"},
		{"sync", "test"},
		{"sync", "status"},
		{"sync", "schema"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "db", "metrics-file"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue)
	}
}

func TestPlayerAddCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	addCmd, _, err := cmd.Find([]string{"player", "add"})
	require.NoError(t, err)

	provinceFlag := addCmd.Flags().Lookup("province")
	require.NotNil(t, provinceFlag)
	assert.Equal(t, "p", provinceFlag.Shorthand)
}

func TestPlayersCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	playersCmd, _, err := cmd.Find([]string{"players"})
	require.NoError(t, err)

	sortFlag := playersCmd.Flags().Lookup("sort")
	require.NotNil(t, sortFlag)
	assert.Equal(t, "name", sortFlag.DefValue)

	require.NotNil(t, playersCmd.Flags().Lookup("province"))
}

func TestInitCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	initCmd, _, err := cmd.Find([]string{"init"})
	require.NoError(t, err)

	require.NotNil(t, initCmd.Flags().Lookup("series"))
	eventsOnly := initCmd.Flags().Lookup("events-only")
	require.NotNil(t, eventsOnly)
	assert.Equal(t, "false", eventsOnly.DefValue)
}

func TestSyncCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	pullCmd, _, err := cmd.Find([]string{"sync", "pull"})
	require.NoError(t, err)
	yesFlag := pullCmd.Flags().Lookup("yes")
	require.NotNil(t, yesFlag)
	assert.Equal(t, "y", yesFlag.Shorthand)

	schemaCmd, _, err := cmd.Find([]string{"sync", "schema"})
	require.NoError(t, err)
	require.NotNil(t, schemaCmd.Flags().Lookup("apply"))
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "events"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
