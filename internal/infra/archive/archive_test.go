package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryArchiveCopiesData(t *testing.T) {
	a := NewMemoryArchive()
	data := []byte(`{"postcode":"1134"}`)
	require.NoError(t, a.Put(context.Background(), "samples/2024/01/11/rec-1.json", data, "application/json"))
	data[0] = 'x'

	obj, ok := a.Object("samples/2024/01/11/rec-1.json")
	require.True(t, ok)
	require.Equal(t, `{"postcode":"1134"}`, string(obj.Data))
	require.Equal(t, "application/json", obj.ContentType)
	require.Equal(t, 1, a.Len())
}

func TestSanitizeEndpoint(t *testing.T) {
	require.Equal(t, "minio:9000", sanitizeEndpoint(" http://minio:9000/ "))
	require.Equal(t, "acct.r2.cloudflarestorage.com", sanitizeEndpoint("https://acct.r2.cloudflarestorage.com"))
	require.Equal(t, "localhost:9000", sanitizeEndpoint("localhost:9000"))
}

func TestNewS3ArchiveRequiresBucket(t *testing.T) {
	_, err := NewS3Archive("http://localhost:9000", "key", "secret", " ", "", nil)
	require.Error(t, err)
}
