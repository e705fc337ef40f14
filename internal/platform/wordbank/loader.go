// Package wordbank loads curated word lists from YAML files on disk. Each
// file holds one wordbank:
//
//	id: en-noise
//	name: English function words
//	language: en
//	words:
//	  - the
//	  - of
package wordbank

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wordgrove/wordgrove-api/internal/domain"
)

// Loader errors
var (
	// ErrWordbankNotFound is returned when no loaded wordbank has the
	// requested ID.
	ErrWordbankNotFound = errors.New("wordbank not found")

	// ErrDuplicateWordbankID is returned when two files declare the same ID.
	ErrDuplicateWordbankID = errors.New("duplicate wordbank ID")
)

// wordbankFile mirrors the on-disk YAML shape.
type wordbankFile struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Language string   `yaml:"language"`
	Words    []string `yaml:"words"`
}

// Library holds the wordbanks loaded from a directory, keyed by ID.
type Library struct {
	banks map[string]*domain.Wordbank
}

// Load reads every .yaml/.yml file directly under dir into a Library.
// A missing directory yields an empty library rather than an error, since a
// deployment without curated lists is valid.
func Load(dir string, logger *slog.Logger) (*Library, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "wordbank_loader"))

	lib := &Library{banks: make(map[string]*domain.Wordbank)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("wordbank directory does not exist, starting empty",
				slog.String("dir", dir))
			return lib, nil
		}
		return nil, fmt.Errorf("failed to read wordbank directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		wb, err := loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load wordbank %s: %w", entry.Name(), err)
		}

		if _, exists := lib.banks[wb.ID]; exists {
			return nil, fmt.Errorf("%w: %s (in %s)", ErrDuplicateWordbankID, wb.ID, entry.Name())
		}
		lib.banks[wb.ID] = wb

		log.Info("wordbank loaded",
			slog.String("id", wb.ID),
			slog.String("language", wb.Language),
			slog.Int("words", wb.Len()))
	}

	return lib, nil
}

func loadFile(path string) (*domain.Wordbank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file wordbankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	return domain.NewWordbank(file.ID, file.Name, file.Language, file.Words)
}

// Get returns the wordbank with the given ID.
// Returns ErrWordbankNotFound if no such wordbank was loaded.
func (l *Library) Get(id string) (*domain.Wordbank, error) {
	wb, ok := l.banks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWordbankNotFound, id)
	}
	return wb, nil
}

// Lookup reports whether any loaded wordbank for the language lists the
// normalized lemma, returning the first matching wordbank ID in sorted order.
func (l *Library) Lookup(language, lemma string) (string, bool) {
	for _, id := range l.IDs() {
		wb := l.banks[id]
		if wb.Language == language && wb.Contains(lemma) {
			return id, true
		}
	}
	return "", false
}

// IDs returns the loaded wordbank IDs in sorted order.
func (l *Library) IDs() []string {
	ids := make([]string, 0, len(l.banks))
	for id := range l.banks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of loaded wordbanks.
func (l *Library) Len() int {
	return len(l.banks)
}
