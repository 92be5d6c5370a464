package banners

import (
	"fmt"

	"github.com/kubemerge/kubemerge/internal/build"
)

func WithVersion() string {
	return fmt.Sprintf("kubemerge version: %s\n", build.Version)
}
