package main

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigreer/amdem/internal/ibpi"
)

func TestPatternFlag(t *testing.T) {
	var f patternFlag
	fs := pflag.NewFlagSet("set", pflag.ContinueOnError)
	fs.Var(&f, "previous", "")

	assert.Equal(t, "unknown", fs.Lookup("previous").DefValue)

	require.NoError(t, fs.Parse([]string{"--previous", "fault"}))
	assert.Equal(t, ibpi.FailedDrive, f.pattern)
	assert.Equal(t, "failure", f.String())
	assert.Equal(t, "pattern", f.Type())

	assert.Error(t, fs.Parse([]string{"--previous", "sparkle"}))
}
