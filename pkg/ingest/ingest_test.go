package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruslano69/listing-wrangler/pkg/core/errs"
	"github.com/ruslano69/listing-wrangler/pkg/core/table"
)

// Helper: записать CSV в zip-архив
func writeZip(t *testing.T, path, csvBody string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create(strings.TrimSuffix(filepath.Base(path), ".zip"))
	require.NoError(t, err)
	_, err = io.WriteString(w, csvBody)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

const fileA = `id,l1,lat,lon,price,currency
a1,Argentina,-34.6,-58.4,100,USD
a2,Argentina,-34.6,-58.4,200,USD
a3,Uruguay,-34.9,-56.2,1000,UYU
a4,Argentina,-34.6,-58.4,100,USD
a5,Peru,,-77.0,300,PEN
`

const fileB = `id,l1,lat,lon,price,currency
b1,Argentina,-34.6,-58.4,100.0,USD
b2,Colombia,4.7,-74.1,500000,COP
b3,Peru,-12.0,-77.0,300,PEN
`

func TestIngest_ZipFiles(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "b_properties.csv.zip"), fileB)
	writeZip(t, filepath.Join(dir, "a_properties.csv.zip"), fileA)

	ds, stats, err := NewIngestor("id").WithJobs(2).Ingest(context.Background(), filepath.Join(dir, "*.zip"))
	require.NoError(t, err)

	assert.Len(t, stats.Files, 2)
	assert.Equal(t, 8, stats.RowsRead)
	// a4 и b1 повторяют a1 по всем колонкам данных
	assert.Equal(t, 2, stats.Duplicates)
	assert.Equal(t, []string{"a1", "a2", "a3", "a5", "b2", "b3"}, ds.Index)
	assert.Equal(t, []string{"l1", "lat", "lon", "price", "currency"}, ds.Schema.Names())
	assert.Equal(t, table.TypeReal, ds.Schema.Fields[3].Type)
	assert.Equal(t, table.TypeText, ds.Schema.Fields[0].Type)
}

func TestIngest_MissingIdentifier(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "a.csv.zip"), fileA)
	writeZip(t, filepath.Join(dir, "b.csv.zip"), "l1,price\nPeru,10\n")

	_, _, err := NewIngestor("id").Ingest(context.Background(), filepath.Join(dir, "*.zip"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInputRead)

	var e *errs.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "b.csv.zip", filepath.Base(e.File))
	assert.Equal(t, Stage, e.Stage)
}

func TestIngest_NoMatches(t *testing.T) {
	_, _, err := NewIngestor("id").Ingest(context.Background(), filepath.Join(t.TempDir(), "*.zip"))
	assert.ErrorIs(t, err, errs.ErrInputRead)
}

func TestIngest_UnreadableArchive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.zip"), []byte("garbage"), 0o644))

	_, _, err := NewIngestor("id").Ingest(context.Background(), filepath.Join(dir, "*.zip"))
	assert.ErrorIs(t, err, errs.ErrInputRead)
}

func TestIngest_Gzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "listings.csv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = io.WriteString(gz, fileB)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	ds, _, err := NewIngestor("id").Ingest(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
}

func TestConcat_SchemaUnion(t *testing.T) {
	a, err := ReadCSV(strings.NewReader("id,x,y\n1,10,a\n"), "a", "id")
	require.NoError(t, err)
	b, err := ReadCSV(strings.NewReader("id,z,x\n2,q,oops\n"), "b", "id")
	require.NoError(t, err)

	out := Concat(a, b)
	assert.Equal(t, []string{"x", "y", "z"}, out.Schema.Names())
	assert.Equal(t, [][]string{{"10", "a", ""}, {"oops", "", "q"}}, out.Records())
	assert.Equal(t, table.TypeText, out.Schema.Fields[0].Type, "mixed column becomes text")
	assert.Equal(t, []string{"1", "2"}, out.Index)
}

func TestDropDuplicates_Idempotent(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(fileA), "a", "id")
	require.NoError(t, err)

	once, dropped := DropDuplicates(ds)
	assert.Equal(t, 1, dropped)
	twice, dropped := DropDuplicates(once)
	assert.Equal(t, 0, dropped)
	assert.Equal(t, once.Index, twice.Index)
	assert.Equal(t, once.Records(), twice.Records())
}

func TestReadCSV(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("\ufeffid,price\n7,NaN\n8,12\n"), "bom", "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"price"}, ds.Schema.Names())
	assert.Equal(t, []string{"7", "8"}, ds.Index)
	assert.True(t, ds.Rows[0][0].Null)

	_, err = ReadCSV(strings.NewReader(""), "empty", "id")
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("id,a\n1,2,3\n"), "ragged", "id")
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("id,a,a\n1,2,3\n"), "dup", "id")
	assert.Error(t, err)
}

// fakeS3 - объекты в памяти
type fakeS3 struct {
	objects map[string]string
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
		}
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte(body)))}, nil
}

func TestIngest_S3(t *testing.T) {
	client := &fakeS3{objects: map[string]string{
		"raw/b.csv":       fileB,
		"raw/a.csv":       fileA,
		"raw/notes.txt":   "ignored",
		"archive/old.csv": fileA,
	}}
	tmp := t.TempDir()

	in := NewIngestor("id").WithRemote(NewS3Source(client).WithTempDir(tmp))
	ds, stats, err := in.Ingest(context.Background(), "s3://listings/raw/*.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"s3://listings/raw/a.csv", "s3://listings/raw/b.csv"}, stats.Files)
	assert.Equal(t, 6, ds.Len())

	left, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, left, "downloaded files are removed")
}

func TestIngest_S3NotConfigured(t *testing.T) {
	_, _, err := NewIngestor("id").Ingest(context.Background(), "s3://listings/raw/*.csv")
	assert.ErrorIs(t, err, errs.ErrInputRead)
}
