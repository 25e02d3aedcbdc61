package compression

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ndjson = `{"id":"a1","birthDate":"1990-01-01"}
{"id":"a2","birthDate":"1985-06-15"}
`

func compress(t *testing.T, alg Algorithm, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, alg, Default)
	require.NoError(t, err)
	_, err = w.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	for _, alg := range []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2} {
		t.Run(string(alg), func(t *testing.T) {
			packed := compress(t, alg, strings.Repeat(ndjson, 20))

			out, err := ReadAll(bytes.NewReader(packed), alg, 0)
			require.NoError(t, err)
			assert.Equal(t, strings.Repeat(ndjson, 20), string(out))
		})
	}
}

func TestDetectFromMagic(t *testing.T) {
	for _, alg := range []Algorithm{Gzip, Snappy, LZ4, Zstd, S2} {
		t.Run(string(alg), func(t *testing.T) {
			packed := compress(t, alg, ndjson)
			assert.Equal(t, alg, Detect(packed))

			out, err := ReadAll(bytes.NewReader(packed), None, 0)
			require.NoError(t, err)
			assert.Equal(t, ndjson, string(out))
		})
	}

	assert.Equal(t, None, Detect([]byte(ndjson)))
}

func TestForPath(t *testing.T) {
	tests := map[string]Algorithm{
		"in.ndjson":        None,
		"in.json.gz":       Gzip,
		"in.json.ZST":      Zstd,
		"in.lz4":           LZ4,
		"in.sz":            Snappy,
		"in.snappy":        Snappy,
		"in.s2":            S2,
		"/tmp/dir.gz/file": None,
	}
	for path, want := range tests {
		assert.Equal(t, want, ForPath(path), path)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patients.ndjson.zst")
	require.NoError(t, os.WriteFile(path, compress(t, Zstd, ndjson), 0o600))

	out, err := ReadFile(path, 0)
	require.NoError(t, err)
	assert.Equal(t, ndjson, string(out))

	_, err = ReadFile(filepath.Join(dir, "missing.json"), 0)
	require.Error(t, err)
}

func TestReadAllEnforcesLimit(t *testing.T) {
	packed := compress(t, Gzip, strings.Repeat("x", 1000))

	_, err := ReadAll(bytes.NewReader(packed), Gzip, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestReadAllCorrupt(t *testing.T) {
	_, err := ReadAll(strings.NewReader("\x1f\x8bgarbage"), Gzip, 0)
	require.Error(t, err)
}

func TestParse(t *testing.T) {
	alg, err := Parse("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, Zstd, alg)

	alg, err = Parse("")
	require.NoError(t, err)
	assert.Equal(t, None, alg)

	_, err = Parse("bzip2")
	require.Error(t, err)
}
