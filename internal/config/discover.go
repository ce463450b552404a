package config

import (
	"os"
	"path/filepath"
)

// findConfigFile looks in dir for a file named <stem>.<ext> for each known
// stem/extension combination, returning the first match. Stems are tried in
// order ("config" before ".jp"), and for each stem every extension is tried
// in knownExtensions order.
func findConfigFile(dir string) (string, bool) {
	for _, stem := range knownStems {
		for _, ext := range knownExtensions {
			candidate := filepath.Join(dir, stem+"."+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}
	}
	return "", false
}

// findUpward walks from start upward through parent directories (inclusive),
// stopping at and including stopDir, returning every directory along the way
// that contains a recognized config file. Results are ordered
// nearest-to-start first so the caller can give closer files higher
// precedence when desired.
func findUpward(start, stopDir string) []string {
	var found []string
	dir := start
	for {
		if path, ok := findConfigFile(dir); ok {
			found = append(found, path)
		}
		if dir == stopDir || dir == filepath.Dir(dir) {
			break
		}
		dir = filepath.Dir(dir)
	}
	return found
}

// UserGlobalDir returns ~/.config/jp, the user-global configuration home.
func UserGlobalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "jp"), nil
}
