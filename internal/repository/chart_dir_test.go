package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"PippyDesk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeChart(t *testing.T, dir, name string, mod time.Time) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(name), 0o644))
	require.NoError(t, os.Chtimes(p, mod, mod))
}

func TestChartDirNewestFirst(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "SPY")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	writeChart(t, dir, "old.png", base)
	writeChart(t, dir, "new.JPG", base.Add(time.Hour))
	writeChart(t, dir, "notes.txt", base.Add(2*time.Hour))

	got, err := NewChartDir(root, 0).Charts(context.Background(), "spy")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "image/jpeg", got[0].MIMEType)
	assert.Equal(t, []byte("new.JPG"), got[0].Data)
	assert.Equal(t, "image/png", got[1].MIMEType)
	assert.Contains(t, got[1].ID, "SPY/old.png@")
}

func TestChartDirIDChangesOnReplace(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "QQQ")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	writeChart(t, dir, "a.png", base)

	src := NewChartDir(root, 0)
	first, err := src.Charts(context.Background(), "QQQ")
	require.NoError(t, err)

	writeChart(t, dir, "a.png", base.Add(time.Minute))
	second, err := src.Charts(context.Background(), "QQQ")
	require.NoError(t, err)
	assert.NotEqual(t, first[0].ID, second[0].ID)
}

func TestChartDirMissingIsEmpty(t *testing.T) {
	got, err := NewChartDir(t.TempDir(), 0).Charts(context.Background(), "DIA")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestChartDirRejectsPathSymbols(t *testing.T) {
	_, err := NewChartDir(t.TempDir(), 0).Charts(context.Background(), "../etc")
	assert.True(t, errors.Is(err, models.ErrValidation))
}
