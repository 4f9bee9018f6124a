package envfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fsjson "github.com/mantle-armada/bootstrap/internal/infra/filesystem/json"
)

const sample = `# frontend
NEXT_PUBLIC_TOKEN=0xold
UNRELATED=keep me

NEXT_PUBLIC_GAME=0xold
 NEXT_PUBLIC_ARENA=indented
NEXT_PUBLIC_TOKEN=duplicate
`

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func readEnv(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestPatch_PreservesUntouchedLines(t *testing.T) {
	path := writeEnv(t, sample)

	result, err := Patch(path, map[string]string{
		"NEXT_PUBLIC_TOKEN": "0xnew",
		"NEXT_PUBLIC_GAME":  "0xgame",
	})
	require.NoError(t, err)

	assert.Equal(t, `# frontend
NEXT_PUBLIC_TOKEN=0xnew
UNRELATED=keep me

NEXT_PUBLIC_GAME=0xgame
 NEXT_PUBLIC_ARENA=indented
NEXT_PUBLIC_TOKEN=duplicate
`, readEnv(t, path))
	assert.Equal(t, []string{"NEXT_PUBLIC_GAME", "NEXT_PUBLIC_TOKEN"}, result.Updated)
	assert.Empty(t, result.Missing)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestPatch_MissingKeysLeftAbsent(t *testing.T) {
	path := writeEnv(t, sample)

	result, err := Patch(path, map[string]string{
		"NEXT_PUBLIC_ARENA":  "0xarena",
		"NEXT_PUBLIC_MARKET": "0xmarket",
	})
	require.NoError(t, err)

	assert.Equal(t, sample, readEnv(t, path))
	assert.Equal(t, []string{"NEXT_PUBLIC_ARENA", "NEXT_PUBLIC_MARKET"}, result.Missing)
	assert.Empty(t, result.Appended)
}

func TestPatch_AppendMissing(t *testing.T) {
	path := writeEnv(t, "A=1")

	result, err := Patch(path, map[string]string{
		"C": "3",
		"A": "one",
		"B": "2",
	}, WithAppendMissing())
	require.NoError(t, err)

	assert.Equal(t, "A=one\nB=2\nC=3\n", readEnv(t, path))
	assert.Equal(t, []string{"B", "C"}, result.Appended)
	assert.Empty(t, result.Missing)
}

func TestPatch_KeepsCRLF(t *testing.T) {
	path := writeEnv(t, "A=1\r\nB=2\r\n")

	_, err := Patch(path, map[string]string{"A": "x"})
	require.NoError(t, err)

	assert.Equal(t, "A=x\r\nB=2\r\n", readEnv(t, path))
}

func TestPatch_MissingFile(t *testing.T) {
	_, err := Patch(filepath.Join(t.TempDir(), "absent.env"), map[string]string{"A": "1"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPrepare_WritesNothing(t *testing.T) {
	path := writeEnv(t, sample)

	patched, err := Prepare(path, map[string]string{"NEXT_PUBLIC_TOKEN": "0xnew"})
	require.NoError(t, err)

	assert.Equal(t, sample, readEnv(t, path))
	assert.Contains(t, string(patched.Content), "NEXT_PUBLIC_TOKEN=0xnew\n")
	assert.Equal(t, os.FileMode(0o600), patched.Perm)
	assert.Equal(t, []string{"NEXT_PUBLIC_TOKEN"}, patched.Result.Updated)
}

func TestPrepare_DirectoryIsRejected(t *testing.T) {
	_, err := Prepare(t.TempDir(), map[string]string{"A": "1"})
	assert.ErrorContains(t, err, "failed to read env file")
}

func TestCommit_ReplacesFileAtomically(t *testing.T) {
	path := writeEnv(t, "A=1\nB=2\n")

	patched, err := Prepare(path, map[string]string{"A": "x"})
	require.NoError(t, err)
	require.NoError(t, patched.Commit(fsjson.NewWriter()))

	assert.Equal(t, "A=x\nB=2\n", readEnv(t, path))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestPatch_PropertyUntouchedKeys(t *testing.T) {
	files := []string{
		"",
		"X=1\nY=2\n",
		"# c\nX=1\n\nZ=3",
		"X=a=b\nX=second\nW=\n",
	}
	updates := []map[string]string{
		{},
		{"X": "new"},
		{"Y": "new", "Q": "absent"},
	}

	for _, content := range files {
		for _, update := range updates {
			path := writeEnv(t, content)
			before, err := Parse(path)
			require.NoError(t, err)

			_, err = Patch(path, update)
			require.NoError(t, err)

			after, err := Parse(path)
			require.NoError(t, err)

			for key, value := range before {
				if _, touched := update[key]; touched {
					assert.Equal(t, update[key], after[key])
					continue
				}
				assert.Equal(t, value, after[key], "key %s changed", key)
			}
		}
	}
}

func TestParse(t *testing.T) {
	path := writeEnv(t, sample)

	env, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, "0xold", env["NEXT_PUBLIC_TOKEN"])
	assert.Equal(t, "keep me", env["UNRELATED"])
	assert.Equal(t, "indented", env["NEXT_PUBLIC_ARENA"])
}
