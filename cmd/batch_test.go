package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadQueries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")
	content := `# outreach batch for Q3
CTOs at SaaS startups

VPs of sales at mid-size manufacturers in US
  # trailing comment
administrators from large marketing companies
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	queries, err := readQueries(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CTOs at SaaS startups",
		"VPs of sales at mid-size manufacturers in US",
		"administrators from large marketing companies",
	}, queries)
}

func TestReadQueries_MissingFile(t *testing.T) {
	_, err := readQueries(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}
