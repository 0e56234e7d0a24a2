package logs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	prev := GetLevel()
	defer SetLevel(prev)

	SetTag("test")
	SetLevel(LevelWarning)
	Info("hidden %d", 1)
	Warn("shown %d", 2)
	Error("failed %d", 3)

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[WARN]")
	assert.Contains(t, out.String(), "test shown 2")
	assert.Contains(t, out.String(), "log_test.go")
	assert.Contains(t, errOut.String(), "failed 3")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]int{
		"trace":   LevelTrace,
		"DEBUG":   LevelDebug,
		"verbose": LevelVerbose,
		"":        LevelInfo,
		"warning": LevelWarning,
		"error":   LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
