package gateway

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"customer-segmentation/internal/domain"
)

// ReportWriter persists a segmentation run as a customer table CSV and a JSON report.
type ReportWriter struct {
	OutputDir string
	now       func() time.Time
}

// NewReportWriter creates a writer rooted at outputDir.
func NewReportWriter(outputDir string) *ReportWriter {
	return &ReportWriter{OutputDir: outputDir, now: time.Now}
}

// Written lists the files produced by one Write call.
type Written struct {
	CustomerTable string `json:"customer_table"`
	Report        string `json:"report"`
}

// Write stores both outputs under timestamped names.
func (w *ReportWriter) Write(report *domain.SegmentationReport) (*Written, error) {
	if err := os.MkdirAll(w.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}

	ts := w.now()
	out := &Written{
		CustomerTable: timestampedFilename(w.OutputDir, "customers", "csv", ts),
		Report:        timestampedFilename(w.OutputDir, "segmentation_report", "json", ts),
	}

	if err := writeFile(out.CustomerTable, func(f io.Writer) error {
		return WriteCustomerTable(f, report.Customers)
	}); err != nil {
		return nil, err
	}
	if err := writeFile(out.Report, func(f io.Writer) error {
		return WriteReportJSON(f, report)
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteCustomerTable writes rows in domain.CustomerTableColumns order.
// Unclustered customers get an empty cluster cell.
func WriteCustomerTable(w io.Writer, rows []domain.CustomerRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.CustomerTableColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		cluster := ""
		if row.Cluster != nil {
			cluster = strconv.Itoa(*row.Cluster)
		}
		record := []string{
			row.CustomerID,
			strconv.Itoa(row.Recency),
			strconv.Itoa(row.Frequency),
			row.Monetary.String(),
			strconv.Itoa(row.RScore),
			strconv.Itoa(row.FScore),
			strconv.Itoa(row.MScore),
			row.RFMScore,
			string(row.Segment),
			cluster,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write customer %s: %w", row.CustomerID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReportJSON encodes the full report with indentation.
func WriteReportJSON(w io.Writer, report *domain.SegmentationReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	if err := fn(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func timestampedFilename(baseDir, name, ext string, t time.Time) string {
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.%s", name, t.Format("20060102_150405"), ext))
}
