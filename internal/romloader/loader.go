// Package romloader reads game images from disk. Images may be stored raw
// or inside a zip, gzip, tar.gz, 7z or rar archive; multi-disk games are
// described by an .m3u playlist.
package romloader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoImage is returned when an archive holds no file with an accepted
	// extension.
	ErrNoImage = errors.New("romloader: no game image in archive")

	// ErrUnsupported is returned for files that are neither a known archive
	// nor carry an accepted extension.
	ErrUnsupported = errors.New("romloader: unsupported file")

	// ErrTooLarge is returned when an image exceeds the loader's size limit.
	ErrTooLarge = errors.New("romloader: image exceeds size limit")
)

// DefaultMaxSize caps image size when Loader.MaxSize is zero.
const DefaultMaxSize = 16 << 20

// Image is a loaded game image.
type Image struct {
	Name string // base name of the file the data came from
	Data []byte
}

// Loader loads images whose names carry one of Extensions.
type Loader struct {
	Extensions []string // e.g. ".rom", ".bin"; matched case-insensitively
	MaxSize    int64
}

type format int

const (
	formatUnknown format = iota
	formatRaw
	formatZip
	format7z
	formatGzip
	formatRar
)

var signatures = []struct {
	magic  []byte
	format format
}{
	{[]byte("PK\x03\x04"), formatZip},
	{[]byte("PK\x05\x06"), formatZip},
	{[]byte("Rar!"), formatRar},
	{[]byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}, format7z},
	{[]byte{0x1F, 0x8B}, formatGzip},
}

// Load reads the image at path. Archives are recognised by signature first
// and extension second; the first entry with an accepted extension is
// returned.
func (l Loader) Load(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, fmt.Errorf("romloader: cannot open %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, 8)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Image{}, fmt.Errorf("romloader: cannot read %s: %w", path, err)
	}

	switch l.detect(header[:n], path) {
	case formatRaw:
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return Image{}, fmt.Errorf("romloader: cannot rewind %s: %w", path, err)
		}
		data, err := l.read(f)
		if err != nil {
			return Image{}, fmt.Errorf("romloader: %s: %w", path, err)
		}
		return Image{Name: filepath.Base(path), Data: data}, nil
	case formatZip:
		return l.fromZip(path)
	case format7z:
		return l.from7z(path)
	case formatGzip:
		return l.fromGzip(path)
	case formatRar:
		return l.fromRar(path)
	}
	return Image{}, fmt.Errorf("%w: %s", ErrUnsupported, path)
}

func (l Loader) detect(header []byte, path string) format {
	for _, sig := range signatures {
		if bytes.HasPrefix(header, sig.magic) {
			return sig.format
		}
	}

	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return formatZip
	case strings.HasSuffix(lower, ".7z"):
		return format7z
	case strings.HasSuffix(lower, ".gz"), strings.HasSuffix(lower, ".tgz"):
		return formatGzip
	case strings.HasSuffix(lower, ".rar"):
		return formatRar
	}
	if l.accepts(path) {
		return formatRaw
	}
	return formatUnknown
}

// accepts reports whether name carries one of the loader's extensions.
func (l Loader) accepts(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range l.Extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func (l Loader) read(r io.Reader) ([]byte, error) {
	limit := l.MaxSize
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

// readEntry reads an archive member opened by open.
func (l Loader) readEntry(name string, open func() (io.ReadCloser, error)) (Image, error) {
	rc, err := open()
	if err != nil {
		return Image{}, fmt.Errorf("romloader: cannot open %s: %w", name, err)
	}
	defer rc.Close()

	data, err := l.read(rc)
	if err != nil {
		return Image{}, fmt.Errorf("romloader: %s: %w", name, err)
	}
	return Image{Name: filepath.Base(name), Data: data}, nil
}
