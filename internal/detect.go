package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "gallery-session"

// StoragePaths holds the detected paths for client state
type StoragePaths struct {
	DataDir    string // directory holding the slot database
	ConfigPath string // config.yaml inside DataDir
}

// DetectStoragePaths detects the client data directory based on the operating system
func DetectStoragePaths() (StoragePaths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return StoragePaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	var dataDir string
	switch runtime.GOOS {
	case "darwin":
		dataDir = filepath.Join(home, "Library/Application Support", appDirName)
	case "linux":
		// Honour XDG_CONFIG_HOME when set
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dataDir = filepath.Join(xdg, appDirName)
		} else {
			dataDir = filepath.Join(home, ".config", appDirName)
		}
	case "windows":
		dataDir = filepath.Join(home, "AppData", "Roaming", appDirName)
	default:
		return StoragePaths{}, fmt.Errorf("unsupported OS: %s (only macOS, Linux and Windows are supported)", runtime.GOOS)
	}

	return pathsFor(dataDir), nil
}

// GetStoragePaths returns the storage paths, using customPath as the data
// directory when it is set
func GetStoragePaths(customPath string) (StoragePaths, error) {
	if customPath == "" {
		return DetectStoragePaths()
	}

	abs, err := filepath.Abs(customPath)
	if err != nil {
		return StoragePaths{}, fmt.Errorf("failed to resolve storage path: %w", err)
	}

	info, err := os.Stat(abs)
	if err == nil && !info.IsDir() {
		return StoragePaths{}, fmt.Errorf("storage path is not a directory: %s", abs)
	}

	return pathsFor(abs), nil
}

func pathsFor(dataDir string) StoragePaths {
	return StoragePaths{
		DataDir:    dataDir,
		ConfigPath: filepath.Join(dataDir, "config.yaml"),
	}
}

// DataDirExists checks if the data directory has been created
func (sp StoragePaths) DataDirExists() bool {
	info, err := os.Stat(sp.DataDir)
	if err != nil {
		return false
	}
	return info.IsDir()
}
