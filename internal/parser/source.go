package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// HeaderFileName is the vendor metadata document of a product.
const HeaderFileName = "metadata.xml"

// RandomAccessFile is an open product file supporting random reads.
type RandomAccessFile interface {
	io.ReaderAt
	io.Closer
}

// Source is the storage holding a product's files: a directory or a zip
// archive. Names are slash-separated and relative to the source root.
type Source interface {
	// Name is the path the source was opened from.
	Name() string
	// List returns every regular file, sorted.
	List() ([]string, error)
	Open(name string) (io.ReadCloser, error)
	OpenReaderAt(name string) (RandomAccessFile, int64, error)
	Exists(name string) bool
	// Find returns the file whose base name matches case-insensitively,
	// preferring the shallowest.
	Find(base string) (string, bool)
	Close() error
}

// OpenSource opens a product directory, its metadata.xml, or a zip archive.
func OpenSource(p string) (Source, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("open product: %w", err)
	}
	if info.IsDir() {
		return &dirSource{root: p}, nil
	}
	switch ext := strings.ToLower(filepath.Ext(p)); {
	case strings.EqualFold(filepath.Base(p), HeaderFileName):
		return &dirSource{root: filepath.Dir(p)}, nil
	case ext == ".zip":
		zr, err := zip.OpenReader(p)
		if err != nil {
			return nil, fmt.Errorf("open zip: %w", err)
		}
		return &zipSource{name: p, r: zr}, nil
	default:
		return nil, &UnsupportedFormatError{Format: ext}
	}
}

func findIn(names []string, base string) (string, bool) {
	best := ""
	for _, n := range names {
		if !strings.EqualFold(path.Base(n), base) {
			continue
		}
		if best == "" || strings.Count(n, "/") < strings.Count(best, "/") {
			best = n
		}
	}
	return best, best != ""
}

type dirSource struct {
	root string
}

func (d *dirSource) Name() string { return d.root }

func (d *dirSource) List() ([]string, error) {
	var names []string
	err := filepath.WalkDir(d.root, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !e.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.root, err)
	}
	sort.Strings(names)
	return names, nil
}

func (d *dirSource) path(name string) string {
	return filepath.Join(d.root, filepath.FromSlash(name))
}

func (d *dirSource) Open(name string) (io.ReadCloser, error) {
	return os.Open(d.path(name))
}

func (d *dirSource) OpenReaderAt(name string) (RandomAccessFile, int64, error) {
	f, err := os.Open(d.path(name))
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

func (d *dirSource) Exists(name string) bool {
	info, err := os.Stat(d.path(name))
	return err == nil && info.Mode().IsRegular()
}

func (d *dirSource) Find(base string) (string, bool) {
	names, err := d.List()
	if err != nil {
		return "", false
	}
	return findIn(names, base)
}

func (d *dirSource) Close() error { return nil }

type zipSource struct {
	name string
	r    *zip.ReadCloser
}

func (z *zipSource) Name() string { return z.name }

func (z *zipSource) List() ([]string, error) {
	var names []string
	for _, f := range z.r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (z *zipSource) file(name string) (*zip.File, error) {
	for _, f := range z.r.File {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("file not found in zip: %s", name)
}

func (z *zipSource) Open(name string) (io.ReadCloser, error) {
	f, err := z.file(name)
	if err != nil {
		return nil, err
	}
	return f.Open()
}

// OpenReaderAt inflates the entry into memory; compressed zip entries do not
// support random access.
func (z *zipSource) OpenReaderAt(name string) (RandomAccessFile, int64, error) {
	rc, err := z.Open(name)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, 0, fmt.Errorf("read zip entry %s: %w", name, err)
	}
	return nopCloser{bytes.NewReader(data)}, int64(len(data)), nil
}

func (z *zipSource) Exists(name string) bool {
	_, err := z.file(name)
	return err == nil
}

func (z *zipSource) Find(base string) (string, bool) {
	names, _ := z.List()
	return findIn(names, base)
}

func (z *zipSource) Close() error { return z.r.Close() }

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
