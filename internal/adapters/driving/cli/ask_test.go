package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestAskCmd_RequiresQuery(t *testing.T) {
	setupTestCLI(t, nil)

	_, err := execute(t, "", "ask")

	assert.Error(t, err)
}

func TestAskCmd_NoDocuments(t *testing.T) {
	setupTestCLI(t, nil)

	out, err := execute(t, "", "ask", "refunds")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents indexed.")
}

func TestAskCmd_RanksMatchingDocumentFirst(t *testing.T) {
	setupTestCLI(t, nil)
	dir := writeDocs(t, map[string]string{"refunds.txt": refundText, "billing.txt": billingText})

	out, err := execute(t, "", "ask", refundText, "-f", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "documents searched):")
	assert.Contains(t, out, "2 documents searched")
	assert.Contains(t, out, "[1] refunds.txt (chunk 0) 1.00")
}

func TestAskCmd_JSON(t *testing.T) {
	setupTestCLI(t, nil)
	dir := writeDocs(t, map[string]string{"refunds.txt": refundText, "billing.txt": billingText})

	out, err := execute(t, "", "ask", refundText, "-f", dir, "--json", "--context")
	require.NoError(t, err)

	var got askOutputJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.TotalDocuments)
	require.NotEmpty(t, got.Results)
	assert.Equal(t, 1, got.Results[0].Rank)
	assert.Equal(t, "refunds.txt", got.Results[0].Filename)
	assert.Equal(t, "txt", got.Results[0].DocumentType)
	assert.InDelta(t, 1.0, got.Results[0].Similarity, 1e-4)
	assert.True(t, strings.HasPrefix(got.Context, "[Source 1: refunds.txt (txt), relevance 100.0%]"))
}

func TestAskCmd_MaxResults(t *testing.T) {
	setupTestCLI(t, nil)
	dir := writeDocs(t, map[string]string{"refunds.txt": refundText, "billing.txt": billingText})

	out, err := execute(t, "", "ask", refundText, "-f", dir, "--json", "-n", "1", "--min-similarity", "0")
	require.NoError(t, err)

	var got askOutputJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.Results, 1)
}

func TestAskCmd_TypeFilter(t *testing.T) {
	setupTestCLI(t, nil)
	dir := writeDocs(t, map[string]string{"refunds.txt": refundText})

	out, err := execute(t, "", "ask", refundText, "-f", dir, "--type", "pdf")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestAskCmd_InvalidType(t *testing.T) {
	setupTestCLI(t, nil)

	_, err := execute(t, "", "ask", "refunds", "--type", "xls")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "type", verr.Field)
}

func TestAskCmd_ContextBlock(t *testing.T) {
	setupTestCLI(t, nil)
	dir := writeDocs(t, map[string]string{"refunds.txt": refundText})

	out, err := execute(t, "", "ask", refundText, "-f", dir, "--context")

	require.NoError(t, err)
	assert.Contains(t, out, "[Source 1: refunds.txt (txt), relevance 100.0%]\n"+refundText)
}

func TestAskCmd_WarnsOnUnindexedFile(t *testing.T) {
	setupTestCLI(t, nil)
	dir := writeDocs(t, map[string]string{"refunds.txt": refundText, "empty.txt": ""})

	out, err := execute(t, "", "ask", refundText, "-f", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "warning: ")
	assert.Contains(t, out, "empty.txt not indexed")
}

func TestParseDocumentTypes(t *testing.T) {
	types, err := parseDocumentTypes([]string{"PDF", " txt "})

	require.NoError(t, err)
	assert.Equal(t, []domain.DocumentType{domain.DocumentTypePDF, domain.DocumentTypeTxt}, types)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n b\t\tc", 10))
	assert.Equal(t, "héll...", snippet("héllo", 4))
}
