package director

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ScriptPath creates a timestamped script filename in dir
func ScriptPath(dir, name string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	if name == "" {
		name = "script"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s.yaml", name, timestamp))
}

// FindLatestDocument finds the most recent script document in dir
func FindLatestDocument(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read scripts directory: %w", err)
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	var docs []candidate
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		docs = append(docs, candidate{filepath.Join(dir, entry.Name()), info.ModTime()})
	}

	if len(docs) == 0 {
		return "", fmt.Errorf("no script files found in %s", dir)
	}

	// Newest first
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].mod.After(docs[j].mod)
	})

	return docs[0].path, nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
