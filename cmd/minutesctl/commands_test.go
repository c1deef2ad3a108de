package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestSummarize_Stdin(t *testing.T) {
	out := run(t, "One. Two. Three. Four.", "summarize")
	assert.Equal(t, "One. Two. Three.\n", out)
}

func TestSummarize_SentenceFlag(t *testing.T) {
	out := run(t, "One. Two. Three.", "summarize", "--sentences", "1")
	assert.Equal(t, "One.\n", out)
}

func TestSeedAndList(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "missing.env")
	base := []string{"--data-path", dir, "--env-file", envFile}

	out := run(t, "", append([]string{"seed", "--username", "demo", "--with-mom"}, base...)...)
	assert.Contains(t, out, "Created demo")

	out = run(t, "", append([]string{"users", "list"}, base...)...)
	assert.Contains(t, out, "demo@example.com")

	out = run(t, "", append([]string{"transcriptions", "list", "--user", "demo"}, base...)...)
	assert.Contains(t, out, "View/Edit MoM")
	assert.Contains(t, out, "3 of 3 transcriptions")

	out = run(t, "", append([]string{"reindex"}, base...)...)
	assert.Contains(t, out, "Indexed 6 documents")

	out = run(t, "", append([]string{"migrate", "status"}, base...)...)
	assert.NotContains(t, out, "pending")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short text", preview("short\n text"))
	long := strings.Repeat("a", 100)
	assert.Len(t, []rune(preview(long)), previewRunes)
}
