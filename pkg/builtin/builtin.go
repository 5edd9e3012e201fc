// Package builtin loads the externally supplied reference list of TCL
// built-in names: a JSON file mapping built-in names to documentation
// URLs, produced by a separate scraper and not part of the core. The core
// only ever reads it, and must tolerate its absence or corruption.
package builtin

import (
	"encoding/json"
	"log/slog"
	"os"
)

// Set is the recognized built-in name lookup the dependency analyzer
// consults via Contains.
type Set struct {
	names map[string]string
}

// Empty returns a Set that recognizes nothing, used whenever no reference
// file is configured or it failed to load.
func Empty() *Set {
	return &Set{names: map[string]string{}}
}

// Load reads a JSON object mapping built-in name -> documentation URL from
// path. A missing or malformed file is not fatal, since this data is
// peripheral: it logs a warning and returns an empty Set.
func Load(path string, logger *slog.Logger) *Set {
	data, err := os.ReadFile(path)
	if err != nil {
		if logger != nil {
			logger.Warn("builtin reference list unavailable, proceeding without it", "path", path, "error", err)
		}
		return Empty()
	}
	var names map[string]string
	if err := json.Unmarshal(data, &names); err != nil {
		if logger != nil {
			logger.Warn("builtin reference list corrupt, proceeding without it", "path", path, "error", err)
		}
		return Empty()
	}
	return &Set{names: names}
}

// Contains reports whether name is a recognized built-in.
func (s *Set) Contains(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.names[name]
	return ok
}

// URL returns the documentation URL for a recognized built-in, if any.
func (s *Set) URL(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	u, ok := s.names[name]
	return u, ok
}

// Len reports how many built-in names are currently loaded.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}
