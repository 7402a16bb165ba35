// Package manifest exports the accepted images of a collection as Parquet or
// YAML.
package manifest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/keepsake-app/keepsake/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatParquet Format = "parquet"
	FormatYAML    Format = "yaml"
)

// Row is one accepted image.
type Row struct {
	Ordinal     int64  `json:"ordinal" parquet:"ordinal" yaml:"ordinal"`
	Name        string `json:"name" parquet:"name" yaml:"name"`
	ContentType string `json:"content_type" parquet:"content_type" yaml:"content_type"`
	Size        int64  `json:"size" parquet:"size" yaml:"size"`
	Width       int64  `json:"width" parquet:"width" yaml:"width"`
	Height      int64  `json:"height" parquet:"height" yaml:"height"`
	MD5         string `json:"md5" parquet:"md5" yaml:"md5"`
	AltText     string `json:"alt_text" parquet:"alt_text" yaml:"alt_text"`
}

// Manifest is the YAML document. Parquet files carry only the rows.
type Manifest struct {
	GeneratedAt time.Time `yaml:"generated_at"`
	Limits      string    `yaml:"limits,omitempty"`
	Message     string    `yaml:"message,omitempty"`
	Images      []Row     `yaml:"images"`
}

func Rows(images []models.AcceptedImage) []Row {
	rows := make([]Row, 0, len(images))
	for _, img := range images {
		rows = append(rows, Row{
			Ordinal:     int64(img.Ordinal),
			Name:        img.Name,
			ContentType: img.ContentType,
			Size:        img.Size,
			Width:       int64(img.Width),
			Height:      int64(img.Height),
			MD5:         img.Checksum,
			AltText:     img.AltText,
		})
	}
	return rows
}

// DetectFormat picks a format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return FormatParquet, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported manifest extension %q (use .parquet, .yaml or .yml)", filepath.Ext(path))
	}
}

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatParquet:
		return FormatParquet, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported manifest format %q", s)
	}
}

// Write stores m at path.
func Write(path string, format Format, m Manifest) error {
	switch format {
	case FormatParquet:
		if err := parquet.WriteFile(path, m.Images); err != nil {
			return fmt.Errorf("failed to write parquet manifest: %w", err)
		}
	case FormatYAML:
		data, err := yaml.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal manifest: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write yaml manifest: %w", err)
		}
	default:
		return fmt.Errorf("unsupported manifest format %q", format)
	}

	slog.Info("Manifest written", "path", path, "format", format, "images", len(m.Images))
	return nil
}

// Read loads a manifest written by Write.
func Read(path string, format Format) (Manifest, error) {
	switch format {
	case FormatParquet:
		rows, err := readParquet(path)
		if err != nil {
			return Manifest{}, err
		}
		return Manifest{Images: rows}, nil
	case FormatYAML:
		data, err := os.ReadFile(path)
		if err != nil {
			return Manifest{}, fmt.Errorf("failed to read yaml manifest: %w", err)
		}
		var m Manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return Manifest{}, fmt.Errorf("failed to parse yaml manifest: %w", err)
		}
		return m, nil
	default:
		return Manifest{}, fmt.Errorf("unsupported manifest format %q", format)
	}
}

func readParquet(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	var records []Row
	rows := make([]Row, 64)
	for {
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)
		if err != nil {
			break
		}
	}
	return records, nil
}
