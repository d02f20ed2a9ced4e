package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "movemut.dev/pkg/movemut/internal/model"
)

func writeMutantCatalog(t *testing.T, dir, content string, replacements map[string]string) m.Path {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o750))

	for name, text := range replacements {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o600))
	}

	catalog := filepath.Join(dir, MutantsFileName)
	require.NoError(t, os.WriteFile(catalog, []byte(content), 0o600))

	return m.Path(catalog)
}

func TestLoadMutants(t *testing.T) {
	dir := t.TempDir()
	packageRoot := filepath.Join(dir, "pkg")
	require.NoError(t, os.MkdirAll(packageRoot, 0o750))

	catalog := writeMutantCatalog(t, filepath.Join(dir, "mutants"), `
[[mutants]]
id = "m1"
file = "sources/counter.move"
replacement = "m1.move"

[[mutants]]
id = "m2"
file = "sources/counter.move"
replacement = "m2.move"
`, map[string]string{
		"m1.move": "module counter::counter { /* < flipped to > */ }",
		"m2.move": "module counter::counter { /* + flipped to - */ }",
	})

	mutants, err := LoadMutants(catalog, m.Path(packageRoot))
	require.NoError(t, err)
	require.Len(t, mutants, 2)

	assert.Equal(t, "m1", mutants[0].ID)
	assert.Equal(t, m.Path(filepath.Join(packageRoot, "sources", "counter.move")), mutants[0].OriginalFile)
	assert.Contains(t, string(mutants[0].Source), "flipped")
}

func TestLoadMutants_DuplicateIDFails(t *testing.T) {
	dir := t.TempDir()

	catalog := writeMutantCatalog(t, dir, `
[[mutants]]
id = "m1"
file = "a.move"
replacement = "m1.move"

[[mutants]]
id = "m1"
file = "b.move"
replacement = "m1.move"
`, map[string]string{"m1.move": "module a::a {}"})

	_, err := LoadMutants(catalog, m.Path(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestLoadMutants_MissingReplacementFails(t *testing.T) {
	dir := t.TempDir()

	catalog := writeMutantCatalog(t, dir, `
[[mutants]]
id = "m1"
file = "a.move"
replacement = "nope.move"
`, nil)

	_, err := LoadMutants(catalog, m.Path(dir))
	require.Error(t, err)
}

func TestLoadMutants_MissingIDFails(t *testing.T) {
	dir := t.TempDir()

	catalog := writeMutantCatalog(t, dir, `
[[mutants]]
file = "a.move"
replacement = "m1.move"
`, map[string]string{"m1.move": "module a::a {}"})

	_, err := LoadMutants(catalog, m.Path(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no id")
}
