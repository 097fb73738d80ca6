package layerdef

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"kmzgen/internal/services"
)

// Extension is the symbology definition file suffix the pipeline exports.
const Extension = ".lyrx"

// Definition describes one pre-authored symbology definition file.
type Definition struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// ArtifactName returns the package file name this definition exports to.
func (d Definition) ArtifactName() string {
	return d.Name + ".kmz"
}

// DisplayName renders the definition name for human-facing output.
func (d Definition) DisplayName() string {
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range d.Name {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return d.Name
	}
	return cases.Title(language.Und, cases.NoLower).String(title)
}

// Discover enumerates symbology definition files in dir, sorted by name.
// A missing or unreadable directory is a configuration error that aborts the
// run before any export starts.
func Discover(dir string) ([]Definition, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "discovery", "list", "layer directory not configured", nil)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "discovery", "list", fmt.Sprintf("read layer directory %s", dir), err)
	}

	definitions := make([]Definition, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), Extension) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "discovery", "stat", name, err)
		}
		definitions = append(definitions, Definition{
			Name:    strings.TrimSuffix(name, filepath.Ext(name)),
			Path:    filepath.Join(dir, name),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sort.Slice(definitions, func(i, j int) bool {
		return definitions[i].Name < definitions[j].Name
	})
	return definitions, nil
}
