package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"customer-segmentation/internal/domain"

	_ "github.com/go-sql-driver/mysql"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// MySQLTransactionRepository implements the TransactionRepository interface over a
// MySQL/MariaDB table with columns customer_id, date_purchase, amount_usd, rating.
type MySQLTransactionRepository struct {
	db *sql.DB
}

// NewMySQLTransactionRepository wraps an open database handle.
func NewMySQLTransactionRepository(db *sql.DB) *MySQLTransactionRepository {
	return &MySQLTransactionRepository{db: db}
}

// OpenMySQL accepts a driver DSN or a mariadb:// / mysql:// URL.
func OpenMySQL(dsn string) (*sql.DB, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "mariadb://") && !strings.HasPrefix(dsn, "mysql://") {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	var user, pass string
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	host := u.Host
	db := strings.TrimPrefix(u.Path, "/")
	if user == "" || host == "" || db == "" {
		return "", fmt.Errorf("incomplete dsn: user, host and database are required")
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
		user, pass, host, db), nil
}

func buildTransactionsQuery(table string) (string, error) {
	if !tableNamePattern.MatchString(table) {
		return "", &domain.ValidationError{Field: "table", Message: fmt.Sprintf("invalid table name %q", table)}
	}
	return fmt.Sprintf(
		"SELECT customer_id, date_purchase, amount_usd, rating FROM `%s` ORDER BY customer_id, date_purchase",
		table), nil
}

// GetTransactions reads every row of the given table.
func (r *MySQLTransactionRepository) GetTransactions(ctx context.Context, table string) ([]domain.RawTransaction, error) {
	query, err := buildTransactionsQuery(table)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query transactions from %s: %w", table, err)
	}
	defer rows.Close()

	var transactions []domain.RawTransaction
	for rows.Next() {
		var (
			tx     domain.RawTransaction
			rating sql.NullFloat64
		)
		if err := rows.Scan(&tx.CustomerID, &tx.Date, &tx.Amount, &rating); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		if rating.Valid {
			v := rating.Float64
			tx.Rating = &v
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions from %s: %w", table, err)
	}
	return transactions, nil
}
