package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "installed"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp Response
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("DRIFT_DETECTED", "stored hash does not match", nil)
	require.NoError(t, err)

	var resp Response
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DRIFT_DETECTED", resp.Error.Code)
	assert.Equal(t, "stored hash does not match", resp.Error.Message)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Success("audio_insert: installed"))
	assert.Equal(t, "audio_insert: installed\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Error("RULE_NOT_FOUND", "no such rule", nil))
	assert.Contains(t, buf.String(), "Error [RULE_NOT_FOUND]: no such rule")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "json",
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   true,
	}

	formatter.VerboseLog("loaded %d rules", 3)
	assert.Empty(t, out.String(), "verbose output must not corrupt JSON output")
	assert.Equal(t, "loaded 3 rules\n", errOut.String())
}

func TestOutputFormatter_VerboseLogDisabled(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	formatter.VerboseLog("should not appear")
	assert.Empty(t, buf.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain error")))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "drift")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "not found")))

	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "inner"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestExitErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := WrapExitError(ExitFailure, "install failed", inner)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "install failed")
	assert.Contains(t, err.Error(), "boom")
}
