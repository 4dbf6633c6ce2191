package gateway

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"customer-segmentation/internal/domain"

	"github.com/shopspring/decimal"
)

// Accepted header names per field: the raw retail export first, then the
// cleaned snake_case export.
var headerAliases = map[string][]string{
	"customer_id":    {"customer reference id", "customer_id"},
	"date":           {"date purchase", "date_purchase", "date"},
	"amount":         {"purchase amount (usd)", "amount_usd", "amount"},
	"rating":         {"review rating", "rating"},
	"item":           {"item purchased", "item"},
	"payment_method": {"payment method", "payment_method"},
}

var requiredFields = []string{"customer_id", "date", "amount"}

// Date layouts tried in order. The retail export writes DD-MM-YYYY.
var dateLayouts = []string{"02-01-2006", time.DateOnly, time.RFC3339}

// CSVTransactionRepository implements the TransactionRepository interface for CSV files.
type CSVTransactionRepository struct{}

// NewCSVTransactionRepository creates a new repository instance.
func NewCSVTransactionRepository() *CSVTransactionRepository {
	return &CSVTransactionRepository{}
}

// GetTransactions reads and parses a retail sales CSV file.
// Empty amount and rating cells are kept as absent values for the cleaning stage.
func (r *CSVTransactionRepository) GetTransactions(ctx context.Context, path string) ([]domain.RawTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transaction file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}
	cols, err := mapHeader(header)
	if err != nil {
		return nil, fmt.Errorf("invalid header in %s: %w", path, err)
	}

	var transactions []domain.RawTransaction
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading record from %s: %w", path, err)
		}
		line++

		tx, err := parseRecord(record, cols)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

// mapHeader resolves each known field to its column index; optional fields map to -1.
func mapHeader(header []string) (map[string]int, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	cols := make(map[string]int, len(headerAliases))
	for field, aliases := range headerAliases {
		cols[field] = -1
		for _, alias := range aliases {
			if i, ok := byName[alias]; ok {
				cols[field] = i
				break
			}
		}
	}
	for _, field := range requiredFields {
		if cols[field] < 0 {
			return nil, fmt.Errorf("missing required column %q", field)
		}
	}
	return cols, nil
}

func parseRecord(record []string, cols map[string]int) (domain.RawTransaction, error) {
	cell := func(field string) string {
		i := cols[field]
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	tx := domain.RawTransaction{
		CustomerID:    cell("customer_id"),
		Item:          strings.ToLower(cell("item")),
		PaymentMethod: strings.ToLower(cell("payment_method")),
	}

	date, err := parseDate(cell("date"))
	if err != nil {
		return domain.RawTransaction{}, err
	}
	tx.Date = date

	if s := cell("amount"); s != "" {
		amount, err := decimal.NewFromString(s)
		if err != nil {
			return domain.RawTransaction{}, fmt.Errorf("could not parse amount '%s': %w", s, err)
		}
		tx.Amount = decimal.NewNullDecimal(amount)
	}

	if s := cell("rating"); s != "" {
		rating, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.RawTransaction{}, fmt.Errorf("could not parse rating '%s': %w", s, err)
		}
		tx.Rating = &rating
	}
	return tx, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse date '%s'", s)
}
