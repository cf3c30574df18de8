package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// GeneratePath creates a timestamped project filename in dir
func GeneratePath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("project_%s.yaml", timestamp))
}

// FindLatest finds the most recent project file in dir
func FindLatest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read projects directory: %w", err)
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			projects = append(projects, filepath.Join(dir, entry.Name()))
		}
	}

	if len(projects) == 0 {
		return "", fmt.Errorf("no project files found in %s", dir)
	}

	// Sort by modification time (newest first)
	sort.Slice(projects, func(i, j int) bool {
		infoI, _ := os.Stat(projects[i])
		infoJ, _ := os.Stat(projects[j])
		return infoI.ModTime().After(infoJ.ModTime())
	})

	return projects[0], nil
}
