package kubeconfig

import (
	"fmt"
	"path/filepath"

	"github.com/google/renameio/v2"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/clientcmd/api"
)

// WriteAtomic serializes cfg and replaces the file at path. The content is
// written to a temporary file in the same directory which is atomically
// renamed over the target, so a failure can never leave a truncated
// kubeconfig behind.
func WriteAtomic(path string, cfg api.Config) error {
	data, err := clientcmd.Write(cfg)
	if err != nil {
		return fmt.Errorf("serializing kubeconfig: %w", err)
	}

	f, err := renameio.TempFile(filepath.Dir(path), path)
	if err != nil {
		return fmt.Errorf("creating temporary file for %s: %w", path, err)
	}
	defer f.Cleanup()

	if err := f.Chmod(0600); err != nil {
		return fmt.Errorf("setting permissions on temporary file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing merged kubeconfig: %w", err)
	}

	return f.CloseAtomicallyReplace()
}
