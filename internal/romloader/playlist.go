package romloader

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsPlaylist reports whether path names an .m3u playlist.
func IsPlaylist(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".m3u")
}

// ReadPlaylist returns the disk paths listed in an .m3u file, in order.
// Blank lines and '#' comments are skipped; relative entries are resolved
// against the playlist's directory.
func ReadPlaylist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("romloader: cannot open playlist: %w", err)
	}
	defer f.Close()

	dir := filepath.Dir(path)
	var disks []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(dir, line)
		}
		disks = append(disks, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("romloader: cannot read playlist: %w", err)
	}
	if len(disks) == 0 {
		return nil, fmt.Errorf("%w: empty playlist %s", ErrNoImage, path)
	}
	return disks, nil
}
