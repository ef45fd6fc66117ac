// Package stationfile lists the station files of one location directory.
package stationfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Directory is a folder of *.txt station files for one location.
// It implements pipeline.StationSource.
type Directory struct {
	dir string
}

// NewDirectory returns a source for dir.
func NewDirectory(dir string) *Directory {
	return &Directory{dir: dir}
}

// ListStations returns the paths of the .txt files directly inside the
// directory, sorted by name. The extension match ignores case.
func (d *Directory) ListStations(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("read station directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		paths = append(paths, filepath.Join(d.dir, e.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}

// Location names the directory's location: its base name with the first
// letter upper-cased and the rest lower-cased.
func (d *Directory) Location() string {
	return capitalize(filepath.Base(filepath.Clean(d.dir)))
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
