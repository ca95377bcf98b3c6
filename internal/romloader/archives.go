package romloader

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
)

func (l Loader) fromZip(path string) (Image, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return Image{}, fmt.Errorf("romloader: cannot open zip %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !l.accepts(f.Name) {
			continue
		}
		return l.readEntry(f.Name, f.Open)
	}
	return Image{}, fmt.Errorf("%w: %s", ErrNoImage, path)
}

func (l Loader) from7z(path string) (Image, error) {
	zr, err := sevenzip.OpenReader(path)
	if err != nil {
		return Image{}, fmt.Errorf("romloader: cannot open 7z %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !l.accepts(f.Name) {
			continue
		}
		return l.readEntry(f.Name, f.Open)
	}
	return Image{}, fmt.Errorf("%w: %s", ErrNoImage, path)
}

func (l Loader) fromRar(path string) (Image, error) {
	rr, err := rardecode.OpenReader(path)
	if err != nil {
		return Image{}, fmt.Errorf("romloader: cannot open rar %s: %w", path, err)
	}
	defer rr.Close()

	for {
		hdr, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Image{}, fmt.Errorf("romloader: rar %s: %w", path, err)
		}
		if hdr.IsDir || !l.accepts(hdr.Name) {
			continue
		}
		data, err := l.read(rr)
		if err != nil {
			return Image{}, fmt.Errorf("romloader: %s: %w", hdr.Name, err)
		}
		return Image{Name: filepath.Base(hdr.Name), Data: data}, nil
	}
	return Image{}, fmt.Errorf("%w: %s", ErrNoImage, path)
}

// fromGzip handles both a single gzipped image and a gzipped tarball.
func (l Loader) fromGzip(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, fmt.Errorf("romloader: cannot open %s: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return Image{}, fmt.Errorf("romloader: gzip %s: %w", path, err)
	}
	defer gz.Close()

	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz") {
		return l.fromTar(path, gz)
	}

	data, err := l.read(gz)
	if err != nil {
		return Image{}, fmt.Errorf("romloader: %s: %w", path, err)
	}
	name := filepath.Base(path)
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		name = name[:len(name)-len(".gz")]
	}
	return Image{Name: name, Data: data}, nil
}

func (l Loader) fromTar(path string, r io.Reader) (Image, error) {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Image{}, fmt.Errorf("romloader: tar %s: %w", path, err)
		}
		if hdr.Typeflag != tar.TypeReg || !l.accepts(hdr.Name) {
			continue
		}
		data, err := l.read(tr)
		if err != nil {
			return Image{}, fmt.Errorf("romloader: %s: %w", hdr.Name, err)
		}
		return Image{Name: filepath.Base(hdr.Name), Data: data}, nil
	}
	return Image{}, fmt.Errorf("%w: %s", ErrNoImage, path)
}
