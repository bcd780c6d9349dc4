package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LocalProvider stores documents under a base directory
type LocalProvider struct {
	basePath string
}

// NewLocalProvider creates a new local file storage provider
func NewLocalProvider(basePath string) (*LocalProvider, error) {
	if basePath == "" {
		basePath = "./data/documents"
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalProvider{basePath: basePath}, nil
}

func (p *LocalProvider) abs(rel string) (string, string) {
	key := cleanKey(rel)
	return key, filepath.Join(p.basePath, filepath.FromSlash(key))
}

// List returns regular files in folder, sorted by name.
func (p *LocalProvider) List(ctx context.Context, folder string) ([]Object, error) {
	key, dir := p.abs(folder)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Object{}, nil
		}
		return nil, fmt.Errorf("failed to list folder: %w", err)
	}

	objects := make([]Object, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		objects = append(objects, Object{
			Path:    path.Join(key, e.Name()),
			Name:    e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	return objects, nil
}

// Read returns the file content.
func (p *LocalProvider) Read(ctx context.Context, rel string) ([]byte, error) {
	_, full := p.abs(rel)
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", rel)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Move renames the file into destFolder. An existing name gets a timestamp suffix.
func (p *LocalProvider) Move(ctx context.Context, rel, destFolder string) (string, error) {
	_, src := p.abs(rel)
	destKey, destDir := p.abs(destFolder)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	name := filepath.Base(src)
	target := filepath.Join(destDir, name)
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(name)
		name = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), time.Now().Unix(), ext)
		target = filepath.Join(destDir, name)
	}

	if err := os.Rename(src, target); err != nil {
		return "", fmt.Errorf("failed to move file: %w", err)
	}
	return path.Join(destKey, name), nil
}

// GetProviderName returns the provider name
func (p *LocalProvider) GetProviderName() string {
	return "Local Storage"
}
