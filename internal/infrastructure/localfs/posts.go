// Package localfs reads post files from a directory on disk.
package localfs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-journal/internal/application/post"
)

// PostSource walks root for *.yaml and *.yml files.
type PostSource struct {
	root string
}

func NewPostSource(root string) *PostSource {
	return &PostSource{root: root}
}

func (s *PostSource) Load(ctx context.Context) ([]post.File, error) {
	fsys := os.DirFS(s.root)
	var files []post.File
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !isPostFile(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		files = append(files, post.File{Path: path, ModTime: info.ModTime(), Data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}
	return files, nil
}

func isPostFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
