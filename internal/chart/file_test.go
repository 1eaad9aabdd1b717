package chart

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "analysis.png")
	series := Render(map[string][]float64{"kg": {1, 2}})
	for i := 0; i < 2; i++ {
		if err := WriteFile(path, series, Options{Width: 200, Height: 120}); err != nil {
			t.Fatalf("WriteFile #%d: %v", i, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open chart: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode chart: %v", err)
	}
	if img.Bounds().Dx() != 200 {
		t.Fatalf("unexpected width %d", img.Bounds().Dx())
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the chart file, found %d entries", len(entries))
	}
}

func TestWriteFileNoDataLeavesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.png")
	err := WriteFile(path, nil, Options{})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no chart file, stat err=%v", err)
	}
}

func TestWriteFileEmptyDatasetRemovesPreviousChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.png")
	if err := WriteFile(path, Render(map[string][]float64{"kg": {1, 2, 3}}), Options{Width: 200, Height: 120}); err != nil {
		t.Fatalf("WriteFile kg: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected chart after first write: %v", err)
	}

	err := WriteFile(path, Render(map[string][]float64{}), Options{Width: 200, Height: 120})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected previous chart removed, stat err=%v", err)
	}
}
