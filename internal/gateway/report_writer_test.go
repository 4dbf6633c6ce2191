package gateway

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"customer-segmentation/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []domain.CustomerRow {
	zero := 0
	return []domain.CustomerRow{
		{
			CustomerID: "C1", Recency: 0, Frequency: 2, Monetary: decimal.RequireFromString("30"),
			RScore: 5, FScore: 5, MScore: 5, RFMScore: "555", Segment: domain.SegmentTopChampions, Cluster: &zero,
		},
		{
			CustomerID: "C2", Recency: 14, Frequency: 1, Monetary: decimal.RequireFromString("5.5"),
			RScore: 1, FScore: 1, MScore: 1, RFMScore: "111", Segment: domain.SegmentOthers,
		},
	}
}

func TestWriteCustomerTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCustomerTable(&buf, sampleRows()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, domain.CustomerTableColumns, records[0])
	assert.Equal(t, []string{"C1", "0", "2", "30", "5", "5", "5", "555", "Top Champions", "0"}, records[1])
	assert.Equal(t, []string{"C2", "14", "1", "5.5", "1", "1", "1", "111", "Others", ""}, records[2])
}

func TestWriteReportJSON(t *testing.T) {
	report := &domain.SegmentationReport{
		RunID:     "run-1",
		Customers: sampleRows(),
		Warnings:  []string{},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReportJSON(&buf, report))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.NotContains(t, decoded, "selection")

	customers := decoded["customers"].([]any)
	second := customers[1].(map[string]any)
	assert.Nil(t, second["cluster"])
	assert.Equal(t, "111", second["RFM_Score"])
}

func TestReportWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewReportWriter(dir)
	w.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	written, err := w.Write(&domain.SegmentationReport{Customers: sampleRows()})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "customers_20240102_030405.csv"), written.CustomerTable)
	assert.Equal(t, filepath.Join(dir, "segmentation_report_20240102_030405.json"), written.Report)

	table, err := os.ReadFile(written.CustomerTable)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(table), strings.Join(domain.CustomerTableColumns, ",")))

	_, err = os.Stat(written.Report)
	assert.NoError(t, err)
}
