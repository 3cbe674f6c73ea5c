package labels

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var router = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")

func TestDescribeKnownAndUnknown(t *testing.T) {
	book := New(map[string]Entry{
		"0x7a250d5630b4cf539739df2c5dacb4c659f2488d": {Name: "Uniswap V2: Router 2", Labels: []string{"dex", "uniswap"}},
		"not-an-address": {Name: "ignored"},
	})
	assert.Equal(t, 1, book.Len())
	assert.Equal(t, "Uniswap V2: Router 2 [label: dex,uniswap]", book.Describe(router))
	assert.Equal(t, "0x7a25...488d (Uniswap V2: Router 2) [label: dex,uniswap]", book.DescribeVerbose(router))

	other := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	assert.Equal(t, "0xa0b8...eb48", book.Describe(other))
}

func TestNilBook(t *testing.T) {
	var book *Book
	assert.Equal(t, "0x7a25...488d", book.Describe(router))
	assert.Equal(t, 0, book.Len())
}

func TestLoadJSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "labels.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"0x7a250d5630b4cf539739df2c5dacb4c659f2488d":{"name":"Router","labels":["dex"]}}`), 0o644))
	yamlPath := filepath.Join(dir, "labels.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("\"0x7a250d5630b4cf539739df2c5dacb4c659f2488d\":\n  name: Router\n  labels: [dex]\n"), 0o644))

	for _, path := range []string{jsonPath, yamlPath} {
		book, err := Load(path)
		require.NoError(t, err, path)
		assert.Equal(t, "Router [label: dex]", book.Describe(router), path)
	}

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
