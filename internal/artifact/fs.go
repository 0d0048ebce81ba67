// Citadel Reports - Digital Signage Reporting and Export Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/citadel-reports

package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemBackend writes artifacts under a root directory, typically
// one served by a static file server or CDN origin.
type FilesystemBackend struct {
	root string
}

// NewFilesystemBackend creates root if needed.
func NewFilesystemBackend(root string) (*FilesystemBackend, error) {
	if root == "" {
		return nil, errors.New("artifact directory is empty")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &FilesystemBackend{root: root}, nil
}

// Name implements Backend.
func (b *FilesystemBackend) Name() string { return "filesystem" }

// Put writes data through a temp file and rename so readers never see a
// partial artifact.
func (b *FilesystemBackend) Put(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := b.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	//nolint:gosec // artifacts are public downloads
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

// resolve maps an object path to a file below root.
func (b *FilesystemBackend) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash("/" + path))
	target := filepath.Join(b.root, clean)
	if !strings.HasPrefix(target, filepath.Clean(b.root)+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact path %q escapes root", path)
	}
	return target, nil
}
