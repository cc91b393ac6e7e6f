// Package pactemplate loads named PAC template bodies from a flat
// directory. The basename of each file is the template name used by
// zone records.
package pactemplate

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Template is a named PAC body. Bodies may contain the literal tokens
// "{{ .Filename }}" and "{{ .Contact }}", substituted at render time
// (see package paclookup) by plain string replacement, never by a
// general templating engine.
type Template struct {
	Name string
	Body string
}

// Load lists the regular files directly inside dir (non-recursive)
// and reads each as UTF-8. Per-file read errors are logged and
// skipped; failure to list the directory itself is fatal to the load.
func Load(dir string, logger *zap.Logger) ([]Template, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("pactemplate: cannot list %q: %w", dir, err)
	}

	var templates []Template
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		// Skip non-regular files (symlinks, devices, etc.) the same
		// way entry.Type() reports them; a plain entry.IsDir() check
		// above already covers the common case.
		info, err := entry.Info()
		if err != nil {
			logger.Warn("pactemplate: cannot stat entry",
				zap.String("name", entry.Name()), zap.Error(err))
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		full := filepath.Join(dir, entry.Name())
		body, err := os.ReadFile(full)
		if err != nil {
			logger.Warn("pactemplate: cannot read template",
				zap.String("path", full), zap.Error(err))
			continue
		}

		templates = append(templates, Template{Name: entry.Name(), Body: string(body)})
	}

	return templates, nil
}
