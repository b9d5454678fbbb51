package localcache

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
)

// Archiver produces and consumes the compressed bundle files the cache
// stores. Pack must preserve relative structure under baseDir for every
// path, accept plain files as well as directories (recursively), and accept
// multiple independent source paths in a single invocation. Unpack must
// extract into a directory that may already partially exist.
type Archiver interface {
	// Pack archives paths (relative to baseDir) into the dest bundle file.
	Pack(ctx context.Context, paths []string, baseDir, dest string) error

	// Unpack extracts the src bundle into destDir.
	Unpack(ctx context.Context, src, destDir string) error

	// Ext returns the filename extension for bundles this engine produces,
	// without a leading dot, e.g. "tar.zst".
	Ext() string
}

// Default size for the buffer used when copying file contents.
const defaultBufferSize = 32 * 1024 // 32KB

// bufferPool is a pool of byte slices used for file I/O during archiving.
var bufferPool = sync.Pool{
	New: func() interface{} {
		buffer := make([]byte, defaultBufferSize)
		return &buffer
	},
}

// tarZstdArchiver is the built-in archive engine: a tar stream compressed
// with zstd, operating entirely through an afero filesystem so it works
// against in-memory filesystems in tests.
type tarZstdArchiver struct {
	fs afero.Fs
}

func newTarZstdArchiver(fs afero.Fs) *tarZstdArchiver {
	return &tarZstdArchiver{fs: fs}
}

// Ext implements Archiver.
func (a *tarZstdArchiver) Ext() string {
	return "tar.zst"
}

// Pack implements Archiver.
func (a *tarZstdArchiver) Pack(ctx context.Context, paths []string, baseDir, dest string) error {
	out, err := a.fs.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create bundle: %w", err)
	}

	packErr := a.writeBundle(ctx, out, paths, baseDir)
	closeErr := out.Close()
	if packErr != nil {
		return packErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to finalize bundle: %w", closeErr)
	}
	return nil
}

func (a *tarZstdArchiver) writeBundle(ctx context.Context, out io.Writer, paths []string, baseDir string) error {
	zw, err := zstd.NewWriter(out)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	tw := tar.NewWriter(zw)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.addPath(tw, baseDir, path); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finalize tar stream: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize zstd stream: %w", err)
	}
	return nil
}

// addPath writes one source path (file or directory tree) to the tar stream,
// with entry names relative to baseDir.
func (a *tarZstdArchiver) addPath(tw *tar.Writer, baseDir, rel string) error {
	root := filepath.Join(baseDir, rel)
	return afero.Walk(a.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk %s: %w", path, err)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			// Bundles carry regular entries only.
			return nil
		}

		name, err := filepath.Rel(baseDir, path)
		if err != nil {
			return err
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("failed to build header for %s: %w", path, err)
		}
		hdr.Name = filepath.ToSlash(name)
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("failed to write header for %s: %w", path, err)
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}

		file, err := a.fs.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer file.Close()

		bufPtr := bufferPool.Get().(*[]byte)
		buffer := *bufPtr
		defer bufferPool.Put(bufPtr)

		if _, err := io.CopyBuffer(tw, file, buffer); err != nil {
			return fmt.Errorf("failed to archive %s: %w", path, err)
		}
		return nil
	})
}

// Unpack implements Archiver.
func (a *tarZstdArchiver) Unpack(ctx context.Context, src, destDir string) error {
	in, err := a.fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open bundle: %w", err)
	}
	defer in.Close()

	zr, err := zstd.NewReader(in)
	if err != nil {
		return fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	cleanDest := filepath.Clean(destDir)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read bundle: %w", err)
		}

		target := filepath.Join(cleanDest, filepath.FromSlash(hdr.Name))
		if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(os.PathSeparator)) {
			return fmt.Errorf("bundle entry escapes destination: %s", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := a.fs.MkdirAll(target, os.FileMode(hdr.Mode)); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := a.extractFile(tr, target, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		default:
			// Not produced by Pack; tolerate and skip.
		}
	}
}

func (a *tarZstdArchiver) extractFile(tr *tar.Reader, target string, mode os.FileMode) error {
	if err := a.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", target, err)
	}

	file, err := a.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}

	bufPtr := bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	copyErr := func() error {
		_, err := io.CopyBuffer(file, tr, buffer)
		return err
	}()
	bufferPool.Put(bufPtr)

	closeErr := file.Close()
	if copyErr != nil {
		return fmt.Errorf("failed to extract %s: %w", target, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", target, closeErr)
	}
	return nil
}
