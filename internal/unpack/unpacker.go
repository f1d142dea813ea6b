package unpack

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"stubrunner/internal/api"
	"stubrunner/pkg/logging"
)

// TempDirPattern names the directories created by Unpack.
const TempDirPattern = "stubrunner-*"

// Unpacker extracts zip-structured artifacts.
type Unpacker struct {
	// baseDir is where temp directories are created; "" means os.TempDir.
	baseDir string
}

// New creates an Unpacker creating its directories below baseDir, or the
// system temp directory when baseDir is empty.
func New(baseDir string) *Unpacker {
	return &Unpacker{baseDir: baseDir}
}

// Unpack extracts the artifact at loc into a new temporary directory.
func (u *Unpacker) Unpack(ctx context.Context, loc api.ArtifactLocation) (*StubDir, error) {
	src := loc.Path()
	if src == "" {
		return nil, &api.UnpackError{Location: loc.String(), Err: errors.New("not a local file location")}
	}

	dir, err := os.MkdirTemp(u.baseDir, TempDirPattern)
	if err != nil {
		return nil, &api.UnpackError{Location: loc.String(), Err: fmt.Errorf("create temp dir: %w", err)}
	}

	count, err := extract(ctx, src, dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, &api.UnpackError{Location: loc.String(), Err: err}
	}

	logging.Info("Unpacker", "Unpacked %d files from %s into %s", count, filepath.Base(src), dir)
	return newOwnedStubDir(dir), nil
}

func extract(ctx context.Context, src, dest string) (int, error) {
	r, err := zip.OpenReader(src)
	if errors.Is(err, zip.ErrInsecurePath) {
		r.Close()
		return 0, fmt.Errorf("illegal file path in archive: %w", err)
	}
	if err != nil {
		return 0, fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	count := 0
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		target, err := entryPath(dest, f.Name)
		if err != nil {
			return count, err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return count, fmt.Errorf("create %s: %w", f.Name, err)
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// entryPath maps an archive entry to a path below dest and rejects entries
// that would land outside of it.
func entryPath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(name) {
		return "", fmt.Errorf("illegal file path in archive: %s", name)
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(f.Name), err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", f.Name, err)
	}
	_, copyErr := io.Copy(out, rc)
	closeErr := out.Close()
	if copyErr != nil {
		return fmt.Errorf("write %s: %w", f.Name, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", f.Name, closeErr)
	}
	return nil
}
