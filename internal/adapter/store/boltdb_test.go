package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/config"
	"docsearch/internal/domain"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := OpenCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCatalog_PutGet(t *testing.T) {
	c := openTestCatalog(t)

	err := c.Put(domain.CatalogEntry{Key: "astronomy", Path: "data/astronomy.pdf", Pages: 2, Sentences: 3, Dimension: 8, Model: "hash", Fingerprint: "abc"})
	require.NoError(t, err)

	got, err := c.Get("astronomy")
	require.NoError(t, err)
	assert.Equal(t, "data/astronomy.pdf", got.Path)
	assert.Equal(t, 3, got.Sentences)
	assert.NotEmpty(t, got.BuildID)
	assert.False(t, got.BuiltAt.IsZero())
}

func TestCatalog_PutReplaces(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.Put(domain.CatalogEntry{Key: "k", Fingerprint: "old"}))
	first, _ := c.Get("k")

	require.NoError(t, c.Put(domain.CatalogEntry{Key: "k", Fingerprint: "new"}))
	second, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "new", second.Fingerprint)
	assert.NotEqual(t, first.BuildID, second.BuildID)
}

func TestCatalog_PutKeepsGivenBuildInfo(t *testing.T) {
	c := openTestCatalog(t)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, c.Put(domain.CatalogEntry{Key: "k", BuildID: "fixed", BuiltAt: at}))

	got, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "fixed", got.BuildID)
	assert.True(t, at.Equal(got.BuiltAt))
}

func TestCatalog_PutRequiresKey(t *testing.T) {
	c := openTestCatalog(t)
	assert.Error(t, c.Put(domain.CatalogEntry{}))
}

func TestCatalog_GetMissing(t *testing.T) {
	c := openTestCatalog(t)
	_, err := c.Get("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalog_ListAndDelete(t *testing.T) {
	c := openTestCatalog(t)
	for _, k := range []string{"b", "a", "c"} {
		require.NoError(t, c.Put(domain.CatalogEntry{Key: k}))
	}

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, "c", entries[2].Key)

	require.NoError(t, c.Delete("b"))
	require.NoError(t, c.Delete("b"))
	entries, err = c.List()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCatalog_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := OpenCatalog(path)
	require.NoError(t, err)
	require.NoError(t, c.Put(domain.CatalogEntry{Key: "k", Fingerprint: "f"}))
	require.NoError(t, c.Close())

	c, err = OpenCatalog(path)
	require.NoError(t, err)
	defer c.Close()

	v, err := c.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v)

	got, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "f", got.Fingerprint)
}

func TestCatalog_Clear(t *testing.T) {
	c := openTestCatalog(t)
	require.NoError(t, c.Put(domain.CatalogEntry{Key: "k"}))
	require.NoError(t, c.Clear())

	entries, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFingerprint(t *testing.T) {
	base := config.DefaultConfig()
	fp, err := Fingerprint(base)
	require.NoError(t, err)
	assert.Len(t, fp, 16)

	same, err := Fingerprint(config.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, fp, same)

	changed := config.DefaultConfig()
	changed.Ingest.SkipChars = 3
	other, err := Fingerprint(changed)
	require.NoError(t, err)
	assert.NotEqual(t, fp, other)

	// Search settings do not change cache contents.
	unrelated := config.DefaultConfig()
	unrelated.Search.TopK = 50
	still, err := Fingerprint(unrelated)
	require.NoError(t, err)
	assert.Equal(t, fp, still)
}

func TestFingerprint_RulesContent(t *testing.T) {
	rules := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte("replace:\n  \"[.]\": \"\"\n"), 0644))

	cfg := config.DefaultConfig()
	cfg.Clean.RulesFile = rules
	before, err := Fingerprint(cfg)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(rules, []byte("replace:\n  \"[,]\": \"\"\n"), 0644))
	after, err := Fingerprint(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	cfg.Clean.RulesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = Fingerprint(cfg)
	assert.Error(t, err)
}
