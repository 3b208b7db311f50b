package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "RAILVIZ_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "railviz.yaml"
	// ConfigDirName is the railviz directory under a config root
	ConfigDirName = "railviz"
)

// SearchPaths lists the candidate config files, highest priority first
func SearchPaths() []string {
	var paths []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		paths = append(paths, p)
	}
	paths = append(paths, ConfigFileName)
	for _, dir := range userConfigDirs() {
		paths = append(paths, filepath.Join(dir, ConfigDirName, "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

// FindConfigPath returns the first existing candidate as an absolute path,
// or "" when there is none
func FindConfigPath() string {
	for _, p := range SearchPaths() {
		if !fileExists(p) {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}

// DefaultConfigPath is where `railviz config init` writes a new file
func DefaultConfigPath() string {
	if dirs := userConfigDirs(); len(dirs) > 0 {
		return filepath.Join(dirs[0], ConfigDirName, "config.yaml")
	}
	return ConfigFileName
}

// EnsureConfigDir creates the directory holding configPath
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

// resolvePaths anchors the relative file references of a loaded config at
// the directory of the file they came from
func (c *Config) resolvePaths(baseDir string) {
	c.Assets.SignalIcon = resolve(baseDir, c.Assets.SignalIcon)
	c.Watch.Path = resolve(baseDir, c.Watch.Path)
	if !isMemoryDatabase(c.Database.Path) {
		c.Database.Path = resolve(baseDir, c.Database.Path)
	}
}

func resolve(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// isMemoryDatabase reports SQLite paths that do not name a file
func isMemoryDatabase(path string) bool {
	return path == "" || path == DefaultDatabasePath || strings.HasPrefix(path, "file:")
}

// userConfigDirs returns $XDG_CONFIG_HOME and ~/.config, whichever are set
func userConfigDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, xdg)
	}
	if home := os.Getenv("HOME"); home != "" {
		if dir := filepath.Join(home, ".config"); len(dirs) == 0 || dirs[0] != dir {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
