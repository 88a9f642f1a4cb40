package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDocJSON = `{
	"header": {"title": "Jean Dupont", "experienceSummary": "10 ans d'expérience"},
	"sections": [
		{"id": "competences", "title": "Compétences", "content": [
			{"type": "bullet", "text": "Go", "level": 0}
		]}
	]
}`

func writeTempDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRenderCommand_MissingInputFlag(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "render")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "required")
}

func TestRenderCommand_WritesDocument(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := getBinaryPath(t)
	input := writeTempDoc(t, validDocJSON)
	output := filepath.Join(t.TempDir(), "out.docx")

	cmd := exec.Command(binaryPath, "render", "--in", input, "--out", output, "--template", "gemini")
	combined, err := cmd.CombinedOutput()

	require.NoError(t, err, string(combined))
	assert.Contains(t, string(combined), "Output:")

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRenderCommand_UnknownTemplate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := getBinaryPath(t)
	input := writeTempDoc(t, validDocJSON)

	cmd := exec.Command(binaryPath, "render", "--in", input, "--template", "neon")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "unknown template")
}

func TestRenderCommand_InvalidDocument(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := getBinaryPath(t)
	input := writeTempDoc(t, `{"sections": []}`)

	cmd := exec.Command(binaryPath, "render", "--in", input)
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "failed schema validation")
}
