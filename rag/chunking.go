package rag

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"
	"github.com/mudler/xlog"
	"github.com/recollect/recollect/pkg/chunk"
)

// chunkFile reads a file and splits it into text chunks of at most
// maxChunkSize. PDF files are converted to plain text first; CSV files
// produce one chunk per row with column labels so keyword search can match
// cell values.
func chunkFile(fpath string, maxChunkSize int) ([]string, error) {
	if _, err := os.Stat(fpath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", fpath)
	}

	switch extension := strings.ToLower(filepath.Ext(fpath)); extension {
	case ".pdf":
		r, err := pdf.Open(fpath)
		if err != nil {
			return nil, err
		}
		b, err := r.GetPlainText()
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(b); err != nil {
			return nil, err
		}
		return chunk.SplitParagraphIntoChunks(buf.String(), maxChunkSize), nil

	case ".csv":
		return chunkCSV(fpath, maxChunkSize)

	case ".txt", ".md":
		xlog.Debug("Reading text file", "file", fpath)
		f, err := os.Open(fpath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		return chunk.SplitParagraphIntoChunks(string(content), maxChunkSize), nil

	default:
		return nil, fmt.Errorf("unsupported file type: %s", extension)
	}
}

// chunkCSV renders every data row as "header: value" pairs on one line.
// Rows stay self-contained, so a single row can be retrieved and cited on
// its own; oversized rows are split like any other text.
func chunkCSV(fpath string, maxChunkSize int) ([]string, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	chunks := []string{}
	for _, row := range records[1:] {
		var line strings.Builder
		for i, cell := range row {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			if line.Len() > 0 {
				line.WriteString("; ")
			}
			if i < len(header) && strings.TrimSpace(header[i]) != "" {
				line.WriteString(header[i])
				line.WriteString(": ")
			}
			line.WriteString(cell)
		}
		if line.Len() == 0 {
			continue
		}
		chunks = append(chunks, chunk.SplitParagraphIntoChunks(line.String(), maxChunkSize)...)
	}

	return chunks, nil
}
