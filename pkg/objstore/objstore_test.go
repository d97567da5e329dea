package objstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	bucket, key, err := ParseURL("s3://listings/raw/ar_properties.csv.zip")
	require.NoError(t, err)
	assert.Equal(t, "listings", bucket)
	assert.Equal(t, "raw/ar_properties.csv.zip", key)

	bucket, key, err = ParseURL("s3://listings")
	require.NoError(t, err)
	assert.Equal(t, "listings", bucket)
	assert.Empty(t, key)

	_, _, err = ParseURL("data/*.zip")
	assert.Error(t, err)

	_, _, err = ParseURL("s3:///key")
	assert.Error(t, err)
}

func TestURL(t *testing.T) {
	assert.Equal(t, "s3://b/k/x.csv", URL("b", "k/x.csv"))
	assert.True(t, IsURL("s3://b/k"))
	assert.False(t, IsURL("/tmp/s3://"))
}
