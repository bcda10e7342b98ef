package dataset

import (
	"fmt"
	"os"
	"strings"

	"logicmate/internal/services"
)

// EnsureDirectory creates path (and parents) when absent and returns the path
// unchanged for chaining. An existing directory is success; any other failure
// propagates so callers never continue against a half-created workspace.
func EnsureDirectory(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", services.Wrap(services.ErrInvalidArgument, "dataset", "ensure directory", "path must not be empty", nil)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "dataset", "ensure directory", fmt.Sprintf("create %s", path), err)
	}
	return path, nil
}

// FindDataset locates a downloaded dataset under root by case-insensitive
// substring match of "{projectID}-{version}" against immediate
// subdirectories. The first match in directory-listing order wins; listing
// order is whatever the filesystem reports.
func FindDataset(root, projectID string, version int) (string, error) {
	needle := strings.ToLower(fmt.Sprintf("%s-%d", strings.TrimSpace(projectID), version))
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "dataset", "find dataset", fmt.Sprintf("list %s", root), err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if strings.Contains(strings.ToLower(entry.Name()), needle) {
			return joinClean(root, entry.Name()), nil
		}
	}
	return "", services.Wrap(services.ErrNotFound, "dataset", "find dataset",
		fmt.Sprintf("no directory under %s matches %q", root, needle), nil)
}
