package stats

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"pokerunboard/logger"
)

// ExportFileName is the name the CSV download is saved under
const ExportFileName = "pokemon-runs.csv"

// Exporter serves the raw CSV export
type Exporter interface {
	ExportCSV(ctx context.Context) ([]byte, error)
}

// ExportCSV downloads the export and writes it byte for byte to
// dir/pokemon-runs.csv, returning the file path.
func ExportCSV(ctx context.Context, exp Exporter, dir string) (string, error) {
	data, err := exp.ExportCSV(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to export runs: %w", err)
	}

	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, ExportFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	logger.Info("Runs exported", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}
