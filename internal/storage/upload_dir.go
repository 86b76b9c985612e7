package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

func uploadDir(ctx context.Context, prefix, src string, upload UploadFunc) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("error getting relative path for %s: %w", path, err)
		}
		key := filepath.ToSlash(filepath.Join(prefix, rel))

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("error opening %s: %w", path, err)
		}
		defer file.Close()

		return upload(ctx, key, file)
	})
}
