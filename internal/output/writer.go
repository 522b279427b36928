package output

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/convoml/intent-classifier-go/internal/domain"
	"go.uber.org/zap"
)

// File names inside the output directory and the zip bundle.
const (
	JSONFileName = "predictions.json"
	CSVFileName  = "predictions.csv"
	ZipFileName  = "predictions.zip"
)

var csvHeader = []string{"conversation_id", "predicted_intent", "confidence", "rationale"}

// Writer serializes classification results to JSON and CSV and bundles both
// into a zip archive.
type Writer struct {
	dir    string
	logger *zap.Logger
}

func NewWriter(dir string, logger *zap.Logger) *Writer {
	return &Writer{
		dir:    dir,
		logger: logger,
	}
}

// WriteFiles writes predictions.json, predictions.csv and predictions.zip to
// the output directory and returns the zip path.
func (w *Writer) WriteFiles(results []domain.ClassificationResult) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	jsonData, err := marshalResults(results)
	if err != nil {
		return "", err
	}

	csvData, err := marshalCSV(results)
	if err != nil {
		return "", err
	}

	jsonPath := filepath.Join(w.dir, JSONFileName)
	if err := os.WriteFile(jsonPath, jsonData, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", JSONFileName, err)
	}

	csvPath := filepath.Join(w.dir, CSVFileName)
	if err := os.WriteFile(csvPath, csvData, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", CSVFileName, err)
	}

	zipData, err := buildZip(jsonData, csvData)
	if err != nil {
		return "", err
	}

	zipPath := filepath.Join(w.dir, ZipFileName)
	if err := os.WriteFile(zipPath, zipData, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", ZipFileName, err)
	}

	w.logger.Info("Results written",
		zap.String("dir", w.dir),
		zap.Int("results", len(results)),
	)

	return zipPath, nil
}

// BuildZip produces the zip bundle in memory, for streaming straight into an
// HTTP response.
func BuildZip(results []domain.ClassificationResult) ([]byte, error) {
	jsonData, err := marshalResults(results)
	if err != nil {
		return nil, err
	}

	csvData, err := marshalCSV(results)
	if err != nil {
		return nil, err
	}

	return buildZip(jsonData, csvData)
}

func marshalResults(results []domain.ClassificationResult) ([]byte, error) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}
	return data, nil
}

func marshalCSV(results []domain.ClassificationResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, result := range results {
		row := []string{
			result.ConversationID,
			result.PredictedIntent,
			strconv.FormatFloat(result.Confidence, 'f', 4, 64),
			result.Rationale,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return buf.Bytes(), nil
}

func buildZip(jsonData, csvData []byte) ([]byte, error) {
	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)

	entries := []struct {
		name string
		data []byte
	}{
		{JSONFileName, jsonData},
		{CSVFileName, csvData},
	}

	for _, entry := range entries {
		file, err := archive.Create(entry.name)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", entry.name, err)
		}
		if _, err := file.Write(entry.data); err != nil {
			return nil, fmt.Errorf("write zip entry %s: %w", entry.name, err)
		}
	}

	if err := archive.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}

	return buf.Bytes(), nil
}
