// Package fileio opens and creates standoff files, choosing a compression
// codec from the file suffix.
//
// Supported suffixes are .xz, .zst, .lz4 and .gz. A few other compression
// suffixes are rejected as unsupported; any other path is read and written
// as plain bytes.
package fileio

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	graferrors "github.com/FocuswithJustin/grafstandoff/core/errors"
)

// Codec names a compression format.
type Codec int

const (
	Plain Codec = iota
	XZ
	Zstd
	Gzip
	LZ4
)

func (c Codec) String() string {
	switch c {
	case XZ:
		return "xz"
	case Zstd:
		return "zstd"
	case Gzip:
		return "gzip"
	case LZ4:
		return "lz4"
	default:
		return "plain"
	}
}

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// tempFileSync is a variable to allow testing of sync errors.
var tempFileSync = func(f *os.File) error {
	return f.Sync()
}

// CodecFor returns the codec selected by the suffix of path.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xz":
		return XZ
	case ".zst", ".zstd":
		return Zstd
	case ".gz":
		return Gzip
	case ".lz4":
		return LZ4
	default:
		return Plain
	}
}

// unsupportedSuffixes are compression formats recognised but not handled.
var unsupportedSuffixes = map[string]bool{
	".bz2": true, ".lzma": true, ".br": true, ".zip": true, ".7z": true,
}

// CheckCodec reports an UnsupportedError for a compression suffix no codec
// handles, rather than treating the file as plain.
func CheckCodec(path string) error {
	if ext := strings.ToLower(filepath.Ext(path)); unsupportedSuffixes[ext] {
		return graferrors.NewUnsupported("compression", ext)
	}
	return nil
}

// TrimCodec removes a compression suffix from path, if any.
func TrimCodec(path string) string {
	if CodecFor(path) == Plain {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// readCloser closes the decompressor before the file.
type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens path for reading, decompressing as the suffix dictates.
func Open(path string) (io.ReadCloser, error) {
	if err := CheckCodec(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, graferrors.NewNotFound("file", path)
		}
		return nil, graferrors.NewIO("open", path, err)
	}
	r, err := NewReader(f, CodecFor(path))
	if err != nil {
		f.Close()
		return nil, graferrors.NewIO("decompress", path, err)
	}
	rc := r.(*readCloser)
	rc.closers = append(rc.closers, f.Close)
	return rc, nil
}

// NewReader wraps src with a decompressor for codec. Closing the result
// does not close src.
func NewReader(src io.Reader, codec Codec) (io.ReadCloser, error) {
	switch codec {
	case XZ:
		xzr, err := xz.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		return &readCloser{Reader: xzr}, nil
	case Zstd:
		zr, err := zstd.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		return &readCloser{Reader: zr, closers: []func() error{func() error { zr.Close(); return nil }}}, nil
	case Gzip:
		gzr, err := gzip.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return &readCloser{Reader: gzr, closers: []func() error{gzr.Close}}, nil
	case LZ4:
		return &readCloser{Reader: lz4.NewReader(src)}, nil
	default:
		return &readCloser{Reader: src}, nil
	}
}

// writeCloser flushes the compressor before closing the file.
type writeCloser struct {
	io.Writer
	closers []func() error
}

func (w *writeCloser) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewWriter wraps dst with a compressor for codec. Closing the result
// flushes the compressor but does not close dst.
func NewWriter(dst io.Writer, codec Codec) (io.WriteCloser, error) {
	switch codec {
	case XZ:
		xzw, err := xz.NewWriter(dst)
		if err != nil {
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		return &writeCloser{Writer: xzw, closers: []func() error{xzw.Close}}, nil
	case Zstd:
		zw, err := zstd.NewWriter(dst)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return &writeCloser{Writer: zw, closers: []func() error{zw.Close}}, nil
	case Gzip:
		gzw := gzip.NewWriter(dst)
		return &writeCloser{Writer: gzw, closers: []func() error{gzw.Close}}, nil
	case LZ4:
		lw := lz4.NewWriter(dst)
		return &writeCloser{Writer: lw, closers: []func() error{lw.Close}}, nil
	default:
		return &writeCloser{Writer: dst}, nil
	}
}

// Create creates path for writing, compressing as the suffix dictates.
// The file is written in place; use WriteFileAtomic for replace-on-success.
func Create(path string) (io.WriteCloser, error) {
	if err := CheckCodec(path); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, graferrors.NewIO("create", path, err)
	}
	w, err := NewWriter(f, CodecFor(path))
	if err != nil {
		f.Close()
		return nil, graferrors.NewIO("compress", path, err)
	}
	wc := w.(*writeCloser)
	wc.closers = append(wc.closers, f.Close)
	return wc, nil
}

// ReadFile reads and decompresses the whole of path.
func ReadFile(path string) ([]byte, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, graferrors.NewIO("read", path, err)
	}
	return data, nil
}

// WriteFileAtomic compresses data as the suffix of path dictates and
// replaces path with it. The previous content survives any failure.
func WriteFileAtomic(path string, data []byte) error {
	if err := CheckCodec(path); err != nil {
		return err
	}
	var buf bytes.Buffer
	w, err := NewWriter(&buf, CodecFor(path))
	if err != nil {
		return graferrors.NewIO("compress", path, err)
	}
	if _, err := w.Write(data); err != nil {
		return graferrors.NewIO("compress", path, err)
	}
	if err := w.Close(); err != nil {
		return graferrors.NewIO("compress", path, err)
	}

	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, ".graf-*")
	if err != nil {
		return graferrors.NewIO("create temp file in", dir, err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(buf.Bytes()); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return graferrors.NewIO("write", tempPath, err)
	}
	if err := tempFileSync(tempFile); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return graferrors.NewIO("sync", tempPath, err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return graferrors.NewIO("close", tempPath, err)
	}

	// Rename to final path (atomic on POSIX)
	if err := osRename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return graferrors.NewIO("rename", path, err)
	}
	return nil
}
