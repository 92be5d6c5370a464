package kubeconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultBackupPrefix is prepended to the timestamp in backup filenames
// when no prefix is configured.
const DefaultBackupPrefix = "config.bak."

const backupTimeFormat = "2006-01-02T15-04-05"

// Backup copies the file at path to a timestamped snapshot before a merge
// touches it. When dir is empty the snapshot is created next to the
// original. Returns the path of the snapshot.
func Backup(path, dir, prefix string, now time.Time) (string, error) {
	if dir == "" {
		dir = filepath.Dir(path)
	}
	if prefix == "" {
		prefix = DefaultBackupPrefix
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating backup directory %s: %w", dir, err)
	}

	backupPath := filepath.Join(dir, prefix+now.Format(backupTimeFormat))
	if err := os.WriteFile(backupPath, data, 0600); err != nil {
		return "", fmt.Errorf("writing backup %s: %w", backupPath, err)
	}

	return backupPath, nil
}
