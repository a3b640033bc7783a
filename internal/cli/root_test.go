package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "scribe", cmd.Use)
	assert.Contains(t, cmd.Long, "content-addressed")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"install", "uninstall", "verify", "list", "events"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "scribe.db", dbFlag.DefValue)

	driverFlag := cmd.PersistentFlags().Lookup("driver")
	require.NotNil(t, driverFlag)
	assert.Equal(t, "sqlite", driverFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "false", verboseFlag.DefValue)
}

func TestInstallCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	installCmd, _, err := cmd.Find([]string{"install"})
	require.NoError(t, err)

	fileFlag := installCmd.Flags().Lookup("file")
	require.NotNil(t, fileFlag)
	assert.Equal(t, "f", fileFlag.Shorthand)
}

func TestVerifyCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	verifyCmd, _, err := cmd.Find([]string{"verify"})
	require.NoError(t, err)

	fileFlag := verifyCmd.Flags().Lookup("file")
	require.NotNil(t, fileFlag)
	assert.Equal(t, "", fileFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := runCommand("--format", "xml", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidDriver(t *testing.T) {
	_, err := runCommand("--driver", "oracle", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid driver")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
