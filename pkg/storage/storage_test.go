package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProofKey(t *testing.T) {
	at := time.UnixMilli(1760832000123)
	assert.Equal(t, "stu-1/S_1760832000123.jpg", ProofKey("stu-1", "S", at, "Surat Dokter.JPG"))
	assert.Equal(t, "stu-1/I_1760832000123.bin", ProofKey("stu-1", "I", at, "noext"))
}

func TestCleanKeyConfinesTraversal(t *testing.T) {
	key, err := CleanKey("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", key)

	key, err = CleanKey("/stu-1//S_1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "stu-1/S_1.jpg", key)

	_, err = CleanKey("  ")
	assert.Error(t, err)
}

func TestLocalStorageRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	store, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/api/v1/files", signer)
	require.NoError(t, err)
	ctx := context.Background()

	key, err := store.Upload(ctx, "stu-1/S_1.txt", strings.NewReader("bukti"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "stu-1/S_1.txt", key)

	link, err := store.PublicURL(key)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "http://localhost:8080/api/v1/files/"))

	token := strings.TrimPrefix(link, "http://localhost:8080/api/v1/files/")
	resolved, err := store.ResolveToken(token)
	require.NoError(t, err)
	assert.Equal(t, key, resolved)

	file, err := store.Open(resolved)
	require.NoError(t, err)
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	assert.Equal(t, "bukti", string(body))

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Open(key)
	assert.Error(t, err)
}

func TestPublicObjectURL(t *testing.T) {
	assert.Equal(t, "https://kelas.oss-ap-southeast-5.aliyuncs.com/bukti/stu-1/S_1.jpg",
		publicObjectURL("", "https://oss-ap-southeast-5.aliyuncs.com", "kelas", "bukti/stu-1/S_1.jpg"))
	assert.Equal(t, "https://cdn.example.com/bukti/a.jpg",
		publicObjectURL("https://cdn.example.com", "oss", "kelas", "bukti/a.jpg"))
}
