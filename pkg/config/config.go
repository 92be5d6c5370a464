// package config stores kubemerge's own settings: where backups of the
// default kubeconfig are written, how they are named, and the policy for
// contexts that cannot be renamed during a merge.
package config

import (
	"os"
	"path"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/kubemerge/kubemerge/internal/build"
)

const (
	// permission for user to read/write.
	USER_READ_WRITE_PERM = 0644
)

const (
	// permission for user to read/write.
	USER_READ_WRITE_EXECUTE_PERM = 0700
)

type Config struct {
	// DefaultKubeconfig overrides the kubeconfig file that merges are
	// applied to. When empty, $KUBECONFIG and then ~/.kube/config apply.
	DefaultKubeconfig string `toml:",omitempty"`

	// BackupDir is where pre-merge snapshots are written.
	// When empty, backups are created next to the kubeconfig file.
	BackupDir string `toml:",omitempty"`

	// BackupPrefix is prepended to the timestamp in backup filenames.
	BackupPrefix string `toml:",omitempty"`

	// DropUnrenamedContexts controls what happens to incoming contexts
	// whose cluster or user field is empty. Such contexts cannot be
	// renamed; when this is false they are still merged under their
	// original name, when true they are excluded from the merge.
	DropUnrenamedContexts bool `toml:",omitempty"`
}

// checks and or creates the config folder on startup
func SetupConfigFolder() error {
	folder, err := ConfigFolder()
	if err != nil {
		return err
	}
	if _, err := os.Stat(folder); os.IsNotExist(err) {
		err := os.Mkdir(folder, USER_READ_WRITE_EXECUTE_PERM)
		if err != nil {
			return err
		}
	}
	return nil
}

func ConfigFolder() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	configDir := filepath.Join(home, build.ConfigFolderName)
	if xdgConfigDir := os.Getenv("XDG_CONFIG_HOME"); !pathExists(configDir) && xdgConfigDir != "" {
		configDir = filepath.Join(xdgConfigDir, "kubemerge")
	}

	return configDir, nil
}

func ConfigFilePath() (string, error) {
	folder, err := ConfigFolder()
	if err != nil {
		return "", err
	}
	return path.Join(folder, "config"), nil
}

// pathExists checks if a given file exists and returns true or false
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func Load() (*Config, error) {
	configFilePath, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(configFilePath, os.O_RDWR|os.O_CREATE, USER_READ_WRITE_PERM)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var c Config

	_, err = toml.NewDecoder(file).Decode(&c)
	if err != nil {
		// if there is an error just reset the file
		return &c, nil
	}
	return &c, nil
}

func (c *Config) Save() error {
	configFilePath, err := ConfigFilePath()
	if err != nil {
		return err
	}

	file, err := os.OpenFile(configFilePath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, USER_READ_WRITE_PERM)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(c)
}
