package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexCmd_RequiresPath(t *testing.T) {
	setupTestCLI(t, nil)

	_, err := execute(t, "", "index")

	assert.Error(t, err)
}

func TestIndexCmd_IndexesDirectory(t *testing.T) {
	setupTestCLI(t, nil)
	dir := writeDocs(t, map[string]string{
		"refunds.txt":      refundText,
		"guides/billing.md": billingText,
		".hidden.txt":      refundText,
		"image.png":        "not text",
	})

	out, err := execute(t, "", "index", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "indexed  "+filepath.Join(dir, "refunds.txt"))
	assert.Contains(t, out, "indexed  "+filepath.Join(dir, "guides", "billing.md"))
	assert.NotContains(t, out, ".hidden.txt")
	assert.Contains(t, out, "Indexed 2 files (2 chunks), 0 failed")
}

func TestIndexCmd_ReportsFailures(t *testing.T) {
	setupTestCLI(t, nil)
	dir := writeDocs(t, map[string]string{
		"empty.txt": "   ",
		"ok.txt":    refundText,
	})

	out, err := execute(t, "", "index", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "failed   "+filepath.Join(dir, "empty.txt"))
	assert.Contains(t, out, "Indexed 1 files (1 chunks), 1 failed")
}

func TestIndexCmd_AllFailed(t *testing.T) {
	setupTestCLI(t, nil)
	dir := writeDocs(t, map[string]string{"empty.txt": ""})

	_, err := execute(t, "", "index", dir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files indexed")
}

func TestIndexCmd_InvalidSettings(t *testing.T) {
	setupTestCLI(t, map[string]any{"chunking.size": -1})
	dir := writeDocs(t, map[string]string{"ok.txt": refundText})

	_, err := execute(t, "", "index", dir)

	assert.Error(t, err)
}
