package storage_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"ged-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProviderPutGet(t *testing.T) {
	provider := storage.NewLocalProvider(t.TempDir())
	ctx := context.Background()

	require.NoError(t, provider.CreateBucket(ctx, "data"))
	require.NoError(t, provider.PutObject(ctx, "data", "hindi/train.src", bytes.NewReader([]byte("वह घर जाता है"))))

	data, err := provider.GetObject(ctx, "data", "hindi/train.src")
	require.NoError(t, err)
	assert.Equal(t, "वह घर जाता है", string(data))

	_, err = provider.GetObject(ctx, "data", "missing.src")
	assert.Error(t, err)
}

func TestLocalProviderListObjects(t *testing.T) {
	provider := storage.NewLocalProvider(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"hindi/train.src", "hindi/train.tgt", "tamil/train.src"} {
		require.NoError(t, provider.PutObject(ctx, "data", key, bytes.NewReader([]byte("x"))))
	}

	objs, err := provider.ListObjects(ctx, "data", "hindi/")
	require.NoError(t, err)

	var names []string
	for _, obj := range objs {
		names = append(names, obj.Name)
		assert.Equal(t, int64(1), obj.Size)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"hindi/train.src", "hindi/train.tgt"}, names)
}

func TestLocalProviderUploadDir(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "tokenizer"), os.ModePerm))
	require.NoError(t, os.WriteFile(filepath.Join(src, "config.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "tokenizer", "vocab.txt"), []byte("[PAD]"), 0644))

	provider := storage.NewLocalProvider(t.TempDir())
	ctx := context.Background()
	require.NoError(t, provider.UploadDir(ctx, "models", "run-1", src))

	objs, err := provider.ListObjects(ctx, "models", "run-1/")
	require.NoError(t, err)
	assert.Len(t, objs, 2)

	data, err := provider.GetObject(ctx, "models", "run-1/tokenizer/vocab.txt")
	require.NoError(t, err)
	assert.Equal(t, "[PAD]", string(data))
}
