//go:build integration

package integrationtests

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ged-backend/internal/core/dataset"
	"ged-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bucketName = "ged-data"

func setupS3Provider(t *testing.T, ctx context.Context) *storage.S3Provider {
	t.Helper()

	provider, err := storage.NewS3Provider(ctx, &storage.S3ProviderConfig{
		S3EndpointURL:     setupMinioContainer(t, ctx),
		S3AccessKeyID:     minioUsername,
		S3SecretAccessKey: minioPassword,
		S3Region:          "us-east-1",
	})
	require.NoError(t, err)

	require.NoError(t, provider.CreateBucket(ctx, bucketName))
	// Creating an existing bucket is not an error.
	require.NoError(t, provider.CreateBucket(ctx, bucketName))

	return provider
}

func TestS3ProviderPutGetList(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	provider := setupS3Provider(t, ctx)

	content := []byte("raam ghar jaata hai")
	require.NoError(t, provider.PutObject(ctx, bucketName, "hindi/train.src", bytes.NewReader(content)))
	require.NoError(t, provider.PutObject(ctx, bucketName, "hindi/train.tgt", bytes.NewReader(content)))
	require.NoError(t, provider.PutObject(ctx, bucketName, "other/train.src", bytes.NewReader(content)))

	data, err := provider.GetObject(ctx, bucketName, "hindi/train.src")
	require.NoError(t, err)
	assert.Equal(t, content, data)

	objs, err := provider.ListObjects(ctx, bucketName, "hindi/")
	require.NoError(t, err)
	names := make([]string, 0, len(objs))
	for _, o := range objs {
		names = append(names, o.Name)
	}
	assert.ElementsMatch(t, []string{"hindi/train.src", "hindi/train.tgt"}, names)

	_, err = provider.GetObject(ctx, bucketName, "hindi/missing")
	assert.Error(t, err)
}

func TestS3ProviderUploadDir(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	provider := setupS3Provider(t, ctx)

	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "tokenizer"), os.ModePerm))
	require.NoError(t, os.WriteFile(filepath.Join(src, "model.onnx"), []byte("weights"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "tokenizer", "vocab.txt"), []byte("[PAD]\n"), 0644))

	require.NoError(t, provider.UploadDir(ctx, bucketName, "runs/1", src))

	data, err := provider.GetObject(ctx, bucketName, "runs/1/tokenizer/vocab.txt")
	require.NoError(t, err)
	assert.Equal(t, "[PAD]\n", string(data))

	objs, err := provider.ListObjects(ctx, bucketName, "runs/1")
	require.NoError(t, err)
	assert.Len(t, objs, 2)
}

func TestReadPairsFromS3(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	provider := setupS3Provider(t, ctx)

	src := strings.Join([]string{"the cat sat on mat", "a dog runs"}, "\n")
	tgt := strings.Join([]string{"the cat sat on the mat", "a dog ran"}, "\n")
	require.NoError(t, provider.PutObject(ctx, bucketName, "train.src", strings.NewReader(src)))
	require.NoError(t, provider.PutObject(ctx, bucketName, "train.tgt", strings.NewReader(tgt)))

	pairs, err := dataset.ReadPairs(ctx, provider, bucketName, "train.src", "train.tgt", dataset.DefaultReadOptions())
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, dataset.Pair{Incorrect: "a dog runs", Correct: "a dog ran"}, pairs[1])
}
