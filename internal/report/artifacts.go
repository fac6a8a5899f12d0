package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lance13c/lpqa/internal/logging"
	"github.com/lance13c/lpqa/internal/types"
)

// JSON renders the machine-readable document with every result
func JSON(r *types.QAReport) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}

// MarkdownPath and JSONPath name the artifacts of a run inside dir
func MarkdownPath(dir string, r *types.QAReport) string {
	return filepath.Join(dir, "qa_report_"+r.RunID+".md")
}

func JSONPath(dir string, r *types.QAReport) string {
	return filepath.Join(dir, "qa_results_"+r.RunID+".json")
}

// WriteArtifacts writes the file-backed formats named in formats into dir
// and returns the paths written. Terminal and comment output are not files.
func WriteArtifacts(dir string, r *types.QAReport, formats []string) ([]string, error) {
	var paths []string
	for _, f := range formats {
		var path string
		var data []byte
		switch strings.ToLower(f) {
		case "markdown":
			path, data = MarkdownPath(dir, r), []byte(Markdown(r))
		case "json":
			b, err := JSON(r)
			if err != nil {
				return paths, err
			}
			path, data = JSONPath(dir, r), b
		default:
			continue
		}

		if err := os.MkdirAll(dir, 0755); err != nil {
			return paths, fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		logging.Info("Wrote %s", path)
		paths = append(paths, path)
	}
	return paths, nil
}
