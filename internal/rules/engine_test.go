package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorrections(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corrections.rules")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestEngineLiteralAndRegexCorrections(t *testing.T) {
	t.Parallel()

	path := writeCorrections(t, `
# dictation shorthand
pull request => PR
s/\bwhisper\s*cpp\b/whisper.cpp/g
`)

	engine, err := NewEngine(path, 30)
	require.NoError(t, err)

	output, err := engine.Apply("whisper cpp pull request")
	require.NoError(t, err)
	assert.Equal(t, "whisper.cpp PR", output)
}

func TestEngineIsCaseInsensitiveByDefault(t *testing.T) {
	t.Parallel()

	path := writeCorrections(t, "new line => \\n")
	engine, err := NewEngine(path, 30)
	require.NoError(t, err)

	output, err := engine.Apply("first New Line second")
	require.NoError(t, err)
	assert.Equal(t, "first \\n second", output)
}

func TestEngineChainsUntilStable(t *testing.T) {
	t.Parallel()

	path := writeCorrections(t, "a => b\nb => c\n")
	engine, err := NewEngine(path, 5)
	require.NoError(t, err)

	output, err := engine.Apply("a")
	require.NoError(t, err)
	assert.Equal(t, "c", output)
}

func TestEngineReportsNonStabilizingRules(t *testing.T) {
	t.Parallel()

	path := writeCorrections(t, "s/x/xx/g\n")
	engine, err := NewEngine(path, 3)
	require.NoError(t, err)

	_, err = engine.Apply("x")
	assert.Error(t, err)
}

func TestEngineMissingFileIsIdentity(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(filepath.Join(t.TempDir(), "absent.rules"), 30)
	require.NoError(t, err)

	output, err := engine.Apply("unchanged text")
	require.NoError(t, err)
	assert.Equal(t, "unchanged text", output)
}

func TestEngineRejectsMalformedLines(t *testing.T) {
	t.Parallel()

	path := writeCorrections(t, "this line has no arrow\n")
	_, err := NewEngine(path, 30)
	assert.ErrorContains(t, err, "line 1")

	path = writeCorrections(t, " => empty spoken form\n")
	_, err = NewEngine(path, 30)
	assert.ErrorContains(t, err, "spoken form")

	path = writeCorrections(t, "s/unterminated\n")
	_, err = NewEngine(path, 30)
	assert.Error(t, err)
}
