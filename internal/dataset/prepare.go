package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"logicmate/internal/services"
)

// ManifestName is the manifest file every dataset export carries.
const ManifestName = "data.yaml"

var urlPattern = regexp.MustCompile(`https?://\S+`)

// Manifest models the fields of a dataset manifest this pipeline relies on.
// Additional provider keys survive rewriting untouched because preparation
// edits the file textually and only parses for validation.
type Manifest struct {
	Train string   `yaml:"train"`
	Val   string   `yaml:"val"`
	Test  string   `yaml:"test"`
	NC    int      `yaml:"nc"`
	Names []string `yaml:"names"`
}

// Prepare rewrites the manifest inside datasetPath for local training. A
// manifest containing remote URL lines is unprepared: URL-matching lines are
// stripped and the provider's relative image-directory references are
// replaced with absolute paths under datasetPath. A manifest already free of
// URLs is left untouched, making Prepare safe to run repeatedly.
func Prepare(datasetPath string) error {
	manifestPath := filepath.Join(datasetPath, ManifestName)
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrConfiguration, "dataset", "prepare",
				fmt.Sprintf("manifest %s does not exist", manifestPath), err)
		}
		return services.Wrap(services.ErrConfiguration, "dataset", "prepare",
			fmt.Sprintf("read manifest %s", manifestPath), err)
	}

	content := string(raw)
	if !urlPattern.MatchString(content) {
		// Already prepared.
		return nil
	}

	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if urlPattern.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	rewritten := strings.Join(kept, "\n")

	for _, split := range []string{"train", "valid", "test"} {
		relative := fmt.Sprintf("../%s/images", split)
		absolute := filepath.Join(datasetPath, split, "images")
		rewritten = strings.ReplaceAll(rewritten, relative, absolute)
	}

	if err := validateManifest([]byte(rewritten), datasetPath); err != nil {
		return err
	}

	if err := os.WriteFile(manifestPath, []byte(rewritten), 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, "dataset", "prepare",
			fmt.Sprintf("write manifest %s", manifestPath), err)
	}
	return nil
}

// ManifestPath returns the manifest location inside a dataset directory.
func ManifestPath(datasetPath string) string {
	return filepath.Join(datasetPath, ManifestName)
}

// ReadManifest parses the manifest inside datasetPath.
func ReadManifest(datasetPath string) (*Manifest, error) {
	raw, err := os.ReadFile(ManifestPath(datasetPath))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "dataset", "read manifest", ManifestPath(datasetPath), err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "dataset", "read manifest", "parse yaml", err)
	}
	return &manifest, nil
}

func validateManifest(content []byte, datasetPath string) error {
	var manifest Manifest
	if err := yaml.Unmarshal(content, &manifest); err != nil {
		return services.Wrap(services.ErrConfiguration, "dataset", "prepare", "rewritten manifest is not valid yaml", err)
	}
	for key, value := range map[string]string{
		"train": manifest.Train,
		"val":   manifest.Val,
		"test":  manifest.Test,
	} {
		if strings.TrimSpace(value) == "" {
			return services.Wrap(services.ErrConfiguration, "dataset", "prepare",
				fmt.Sprintf("rewritten manifest is missing the %s key", key), nil)
		}
		if !filepath.IsAbs(value) {
			return services.Wrap(services.ErrConfiguration, "dataset", "prepare",
				fmt.Sprintf("rewritten manifest %s path %q is not absolute under %s", key, value, datasetPath), nil)
		}
	}
	return nil
}

func joinClean(root, name string) string {
	return filepath.Clean(filepath.Join(root, name))
}
