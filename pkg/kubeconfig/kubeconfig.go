// package kubeconfig loads, merges and writes Kubernetes client
// configuration documents. All operations take explicit file paths and
// mutate documents in memory only; the destination file is replaced
// atomically and only after every prior step has succeeded.
package kubeconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/clientcmd/api"
)

// DefaultPath resolves the kubeconfig file that merges apply to.
// KUBECONFIG may hold a path list; writes always target the first entry,
// matching kubectl's behaviour.
func DefaultPath() (string, error) {
	if env := os.Getenv(clientcmd.RecommendedConfigPathEnvVar); env != "" {
		return filepath.SplitList(env)[0], nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".kube", "config"), nil
}

// Open reads and parses the kubeconfig at path. The file must exist: a
// missing file is an error here, unlike the client-go loading rules which
// silently fall back to an empty config.
func Open(path string) (*api.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading kubeconfig %s: %w", path, err)
	}

	cfg, err := clientcmd.Load(data)
	if err != nil {
		return nil, fmt.Errorf("parsing kubeconfig %s: %w", path, err)
	}

	// file paths inside the document resolve relative to its location
	resolveLocation(cfg, path)

	return cfg, nil
}

func resolveLocation(cfg *api.Config, path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, cluster := range cfg.Clusters {
		cluster.LocationOfOrigin = abs
	}
	for _, user := range cfg.AuthInfos {
		user.LocationOfOrigin = abs
	}
	for _, ctx := range cfg.Contexts {
		ctx.LocationOfOrigin = abs
	}
}
