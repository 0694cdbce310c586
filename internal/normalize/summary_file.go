package normalize

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WriteSummaryFile stores s as JSON or YAML, chosen by the file extension.
func WriteSummaryFile(s Summary, path string) error {
	var (
		blob []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		blob, err = json.MarshalIndent(s, "", "  ")
	case ".yaml", ".yml":
		blob, err = yaml.Marshal(s)
	default:
		return fmt.Errorf("unsupported summary format: %s", path)
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}
