package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/domain"
)

// TransactionFilter captures operator search parameters.
type TransactionFilter struct {
	VehicleID     *string
	MerchantID    *string
	ParkingStatus *domain.ParkingStatus
	PaymentStatus *domain.PaymentStatus
	// ExcludeActive drops the open session so LIMIT/OFFSET paginate history
	// rows only.
	ExcludeActive bool
	Limit         int
	Offset        int
}

// TransactionRepository encapsulates parking transaction persistence.
// Transactions are append-only: rows are created at entry and mutated at
// exit/cancel, never deleted.
type TransactionRepository interface {
	// Create inserts an ACTIVE/PENDING row; a second ACTIVE row for the same
	// vehicle or spot violates the partial unique indexes and is reported as
	// ErrDuplicateActive.
	Create(ctx context.Context, txn *domain.ParkingTransaction) error
	GetByID(ctx context.Context, id string) (*domain.ParkingTransaction, error)
	GetActiveByVehicle(ctx context.Context, vehicleID string) (*domain.ParkingTransaction, error)
	ListWithFilter(ctx context.Context, filter TransactionFilter) ([]domain.ParkingTransaction, error)
	// RecordExit stamps exit time and total cost while the session stays ACTIVE.
	RecordExit(ctx context.Context, tx pgx.Tx, id string, exitTime time.Time, cost decimal.Decimal) error
	// CompletePayment flips an ACTIVE session to PAID/COMPLETED.
	CompletePayment(ctx context.Context, tx pgx.Tx, id string) error
	SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error
	// CancelIfActive marks the session CANCELLED only from ACTIVE, reporting
	// whether a row changed.
	CancelIfActive(ctx context.Context, tx pgx.Tx, id string) (bool, error)
}

type transactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository returns a Postgres-backed implementation.
func NewTransactionRepository(pool *pgxpool.Pool) TransactionRepository {
	return &transactionRepository{pool: pool}
}

const txnColumns = `id, vehicle_id, spot_id, entry_time, exit_time, total_cost, parking_status, payment_status, created_at, updated_at`

func (r *transactionRepository) Create(ctx context.Context, txn *domain.ParkingTransaction) error {
	const query = `
        INSERT INTO parking_transactions (vehicle_id, spot_id, entry_time, parking_status, payment_status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		txn.VehicleID,
		txn.SpotID,
		txn.EntryTime,
		txn.ParkingStatus,
		txn.PaymentStatus,
	).Scan(&txn.ID, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateActive
	}
	return err
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*domain.ParkingTransaction, error) {
	const query = `SELECT ` + txnColumns + ` FROM parking_transactions WHERE id=$1`
	return fetchTransaction(r.pool.QueryRow(ctx, query, id))
}

func (r *transactionRepository) GetActiveByVehicle(ctx context.Context, vehicleID string) (*domain.ParkingTransaction, error) {
	const query = `SELECT ` + txnColumns + ` FROM parking_transactions WHERE vehicle_id=$1 AND parking_status='ACTIVE'`
	return fetchTransaction(r.pool.QueryRow(ctx, query, vehicleID))
}

func (r *transactionRepository) ListWithFilter(ctx context.Context, filter TransactionFilter) ([]domain.ParkingTransaction, error) {
	base := `SELECT t.id, t.vehicle_id, t.spot_id, t.entry_time, t.exit_time, t.total_cost,
                    t.parking_status, t.payment_status, t.created_at, t.updated_at
             FROM parking_transactions t`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.MerchantID != nil {
		base += ` JOIN parking_spots s ON s.id = t.spot_id`
		args = append(args, *filter.MerchantID)
		clauses = append(clauses, fmt.Sprintf("s.merchant_id=$%d", len(args)))
	}
	if filter.VehicleID != nil {
		args = append(args, *filter.VehicleID)
		clauses = append(clauses, fmt.Sprintf("t.vehicle_id=$%d", len(args)))
	}
	if filter.ParkingStatus != nil {
		args = append(args, *filter.ParkingStatus)
		clauses = append(clauses, fmt.Sprintf("t.parking_status=$%d", len(args)))
	}
	if filter.PaymentStatus != nil {
		args = append(args, *filter.PaymentStatus)
		clauses = append(clauses, fmt.Sprintf("t.payment_status=$%d", len(args)))
	}
	if filter.ExcludeActive {
		clauses = append(clauses, "t.parking_status <> 'ACTIVE'")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *transactionRepository) RecordExit(ctx context.Context, tx pgx.Tx, id string, exitTime time.Time, cost decimal.Decimal) error {
	q := querier(r.pool, tx)
	const query = `
        UPDATE parking_transactions SET exit_time=$2, total_cost=$3, updated_at=NOW()
        WHERE id=$1 AND parking_status='ACTIVE'`
	cmd, err := q.Exec(ctx, query, id, exitTime, cost)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *transactionRepository) CompletePayment(ctx context.Context, tx pgx.Tx, id string) error {
	q := querier(r.pool, tx)
	const query = `
        UPDATE parking_transactions SET payment_status='PAID', parking_status='COMPLETED', updated_at=NOW()
        WHERE id=$1 AND parking_status='ACTIVE'`
	cmd, err := q.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *transactionRepository) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	const query = `UPDATE parking_transactions SET payment_status=$2, updated_at=NOW() WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *transactionRepository) CancelIfActive(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	q := querier(r.pool, tx)
	const query = `
        UPDATE parking_transactions SET parking_status='CANCELLED', updated_at=NOW()
        WHERE id=$1 AND parking_status='ACTIVE'`
	cmd, err := q.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func fetchTransaction(row pgx.Row) (*domain.ParkingTransaction, error) {
	var txn domain.ParkingTransaction
	var cost decimal.NullDecimal
	if err := row.Scan(
		&txn.ID,
		&txn.VehicleID,
		&txn.SpotID,
		&txn.EntryTime,
		&txn.ExitTime,
		&cost,
		&txn.ParkingStatus,
		&txn.PaymentStatus,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if cost.Valid {
		txn.TotalCost = &cost.Decimal
	}
	return &txn, nil
}

func scanTransactions(rows pgx.Rows) ([]domain.ParkingTransaction, error) {
	var result []domain.ParkingTransaction
	for rows.Next() {
		var txn domain.ParkingTransaction
		var cost decimal.NullDecimal
		if err := rows.Scan(
			&txn.ID,
			&txn.VehicleID,
			&txn.SpotID,
			&txn.EntryTime,
			&txn.ExitTime,
			&cost,
			&txn.ParkingStatus,
			&txn.PaymentStatus,
			&txn.CreatedAt,
			&txn.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if cost.Valid {
			txn.TotalCost = &cost.Decimal
		}
		result = append(result, txn)
	}
	return result, rows.Err()
}
