package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"PippyDesk/internal/domain/models"
	"PippyDesk/internal/domain/repository"
	"PippyDesk/pkg/util"
)

var chartMIMETypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// ChartDir reads uploaded charts from <root>/<SYMBOL>/.
type ChartDir struct {
	root    string
	maxSize int64
}

// NewChartDir creates a chart source rooted at dir. Files above maxSize bytes are skipped.
func NewChartDir(dir string, maxSize int64) repository.ChartSource {
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	return &ChartDir{root: dir, maxSize: maxSize}
}

// Charts returns images newest first. A missing directory means no charts.
// The ID changes whenever the file is replaced, so cached readings follow uploads.
func (d *ChartDir) Charts(ctx context.Context, symbol string) ([]models.ChartImage, error) {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" || strings.ContainsAny(symbol, `/\`) || strings.Contains(symbol, "..") {
		return nil, fmt.Errorf("%w: invalid symbol %q", models.ErrValidation, symbol)
	}
	dir := filepath.Join(d.root, symbol)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.ChartImage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read chart dir: %w", err)
	}

	out := make([]models.ChartImage, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() {
			continue
		}
		mime, ok := chartMIMETypes[strings.ToLower(filepath.Ext(e.Name()))]
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Size() > d.maxSize {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read chart %s: %w", e.Name(), err)
		}
		out = append(out, models.ChartImage{
			ID:         fmt.Sprintf("%s/%s@%d", symbol, e.Name(), info.ModTime().UnixNano()),
			Symbol:     symbol,
			MIMEType:   mime,
			Data:       data,
			UploadedAt: info.ModTime().UTC(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}
