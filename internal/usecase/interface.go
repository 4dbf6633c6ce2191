package usecase

import (
	"context"

	"customer-segmentation/internal/domain"
)

// TransactionRepository defines the interface for fetching the purchase ledger.
// The usecase layer depends on this interface, not on a concrete implementation.
// source is a file path for the CSV gateway and a table name for the MySQL gateway.
//
//go:generate mockgen -destination=mocks/mock_repository.go -source=interface.go TransactionRepository
type TransactionRepository interface {
	GetTransactions(ctx context.Context, source string) ([]domain.RawTransaction, error)
}
