package codec

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "id,l1,price\n1,Argentina,100\n"

func TestDetect(t *testing.T) {
	tests := map[string]Kind{
		"ar_properties.csv.zip": Zip,
		"data.CSV.GZ":           Gzip,
		"data.csv.zst":          Zstd,
		"data.knz":              Kanzi,
		"data.csv":              None,
		"data":                  None,
	}
	for name, want := range tests {
		assert.Equal(t, want, Detect(name), name)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, name := range []string{"out.csv", "out.csv.gz", "out.csv.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			w, err := Create(path)
			require.NoError(t, err)
			_, err = io.WriteString(w, sample)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := Open(path)
			require.NoError(t, err)
			defer r.Close()
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, sample, string(data))
		})
	}
}

func TestOpenZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	readme, err := zw.Create("README.txt")
	require.NoError(t, err)
	_, err = io.WriteString(readme, "not a csv")
	require.NoError(t, err)
	entry, err := zw.Create("listings.csv")
	require.NoError(t, err)
	_, err = io.WriteString(entry, sample)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, sample, string(data))
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "broken.zip")
	require.NoError(t, os.WriteFile(bad, []byte("not a zip"), 0o644))
	_, err = Open(bad)
	assert.Error(t, err)

	_, err = Create(filepath.Join(dir, "out.knz"))
	assert.Error(t, err)
}
