package mocks

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/parking-service/internal/domain"
	"github.com/spec-kit/parking-service/internal/repository"
)

// Function-field doubles for the repository interfaces. Tests populate only
// the fields a scenario touches; calling an unset field panics, which makes
// unexpected repository access visible.

type UserRepository struct {
	CreateFn        func(ctx context.Context, user *domain.User) error
	UpdateFn        func(ctx context.Context, user *domain.User) error
	GetByIDFn       func(ctx context.Context, id string) (*domain.User, error)
	GetByEmailFn    func(ctx context.Context, email string) (*domain.User, error)
	DebitBalanceFn  func(ctx context.Context, tx pgx.Tx, id string, amount decimal.Decimal) (decimal.Decimal, error)
	CreditBalanceFn func(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error)
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (m *UserRepository) Create(ctx context.Context, user *domain.User) error { return m.CreateFn(ctx, user) }
func (m *UserRepository) Update(ctx context.Context, user *domain.User) error { return m.UpdateFn(ctx, user) }
func (m *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.GetByEmailFn(ctx, email)
}
func (m *UserRepository) DebitBalance(ctx context.Context, tx pgx.Tx, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	return m.DebitBalanceFn(ctx, tx, id, amount)
}
func (m *UserRepository) CreditBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	return m.CreditBalanceFn(ctx, id, amount)
}

type VehicleRepository struct {
	CreateFn     func(ctx context.Context, vehicle *domain.Vehicle) error
	UpdateFn     func(ctx context.Context, vehicle *domain.Vehicle) error
	GetByIDFn    func(ctx context.Context, id string) (*domain.Vehicle, error)
	GetByPlateFn func(ctx context.Context, plate string) (*domain.Vehicle, error)
}

var _ repository.VehicleRepository = (*VehicleRepository)(nil)

func (m *VehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	return m.CreateFn(ctx, vehicle)
}
func (m *VehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	return m.UpdateFn(ctx, vehicle)
}
func (m *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *VehicleRepository) GetByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	return m.GetByPlateFn(ctx, plate)
}

type MerchantRepository struct {
	GetByIDFn   func(ctx context.Context, id string) (*domain.Merchant, error)
	GetByCodeFn func(ctx context.Context, code string) (*domain.Merchant, error)
}

var _ repository.MerchantRepository = (*MerchantRepository)(nil)

func (m *MerchantRepository) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *MerchantRepository) GetByCode(ctx context.Context, code string) (*domain.Merchant, error) {
	return m.GetByCodeFn(ctx, code)
}

type SpotRepository struct {
	GetByIDFn            func(ctx context.Context, id string) (*domain.ParkingSpot, error)
	GetByNumberFn        func(ctx context.Context, merchantID, spotNumber string) (*domain.ParkingSpot, error)
	FindFirstAvailableFn func(ctx context.Context, filter repository.SpotFilter) (*domain.ParkingSpot, error)
	ListFn               func(ctx context.Context, filter repository.SpotFilter) ([]domain.ParkingSpot, error)
	UpdateStatusIfFn     func(ctx context.Context, tx pgx.Tx, id string, from, to domain.SpotStatus) (bool, error)
	SetStatusFn          func(ctx context.Context, id string, status domain.SpotStatus) error
}

var _ repository.SpotRepository = (*SpotRepository)(nil)

func (m *SpotRepository) GetByID(ctx context.Context, id string) (*domain.ParkingSpot, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *SpotRepository) GetByNumber(ctx context.Context, merchantID, spotNumber string) (*domain.ParkingSpot, error) {
	return m.GetByNumberFn(ctx, merchantID, spotNumber)
}
func (m *SpotRepository) FindFirstAvailable(ctx context.Context, filter repository.SpotFilter) (*domain.ParkingSpot, error) {
	return m.FindFirstAvailableFn(ctx, filter)
}
func (m *SpotRepository) List(ctx context.Context, filter repository.SpotFilter) ([]domain.ParkingSpot, error) {
	return m.ListFn(ctx, filter)
}
func (m *SpotRepository) UpdateStatusIf(ctx context.Context, tx pgx.Tx, id string, from, to domain.SpotStatus) (bool, error) {
	return m.UpdateStatusIfFn(ctx, tx, id, from, to)
}
func (m *SpotRepository) SetStatus(ctx context.Context, id string, status domain.SpotStatus) error {
	return m.SetStatusFn(ctx, id, status)
}

type TransactionRepository struct {
	CreateFn             func(ctx context.Context, txn *domain.ParkingTransaction) error
	GetByIDFn            func(ctx context.Context, id string) (*domain.ParkingTransaction, error)
	GetActiveByVehicleFn func(ctx context.Context, vehicleID string) (*domain.ParkingTransaction, error)
	ListWithFilterFn     func(ctx context.Context, filter repository.TransactionFilter) ([]domain.ParkingTransaction, error)
	RecordExitFn         func(ctx context.Context, tx pgx.Tx, id string, exitTime time.Time, cost decimal.Decimal) error
	CompletePaymentFn    func(ctx context.Context, tx pgx.Tx, id string) error
	SetPaymentStatusFn   func(ctx context.Context, id string, status domain.PaymentStatus) error
	CancelIfActiveFn     func(ctx context.Context, tx pgx.Tx, id string) (bool, error)
}

var _ repository.TransactionRepository = (*TransactionRepository)(nil)

func (m *TransactionRepository) Create(ctx context.Context, txn *domain.ParkingTransaction) error {
	return m.CreateFn(ctx, txn)
}
func (m *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.ParkingTransaction, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *TransactionRepository) GetActiveByVehicle(ctx context.Context, vehicleID string) (*domain.ParkingTransaction, error) {
	return m.GetActiveByVehicleFn(ctx, vehicleID)
}
func (m *TransactionRepository) ListWithFilter(ctx context.Context, filter repository.TransactionFilter) ([]domain.ParkingTransaction, error) {
	return m.ListWithFilterFn(ctx, filter)
}
func (m *TransactionRepository) RecordExit(ctx context.Context, tx pgx.Tx, id string, exitTime time.Time, cost decimal.Decimal) error {
	return m.RecordExitFn(ctx, tx, id, exitTime, cost)
}
func (m *TransactionRepository) CompletePayment(ctx context.Context, tx pgx.Tx, id string) error {
	return m.CompletePaymentFn(ctx, tx, id)
}
func (m *TransactionRepository) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	return m.SetPaymentStatusFn(ctx, id, status)
}
func (m *TransactionRepository) CancelIfActive(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	return m.CancelIfActiveFn(ctx, tx, id)
}

type VerificationCodeRepository struct {
	CreateFn           func(ctx context.Context, code *domain.VerificationCode) error
	LatestUnverifiedFn func(ctx context.Context, userID, code string) (*domain.VerificationCode, error)
	MarkVerifiedFn     func(ctx context.Context, id string) (bool, error)
}

var _ repository.VerificationCodeRepository = (*VerificationCodeRepository)(nil)

func (m *VerificationCodeRepository) Create(ctx context.Context, code *domain.VerificationCode) error {
	return m.CreateFn(ctx, code)
}
func (m *VerificationCodeRepository) LatestUnverified(ctx context.Context, userID, code string) (*domain.VerificationCode, error) {
	return m.LatestUnverifiedFn(ctx, userID, code)
}
func (m *VerificationCodeRepository) MarkVerified(ctx context.Context, id string) (bool, error) {
	return m.MarkVerifiedFn(ctx, id)
}

// TxManager runs the callback with a nil transaction; the repository doubles
// above ignore the tx argument.
type TxManager struct {
	WithinTxFn func(ctx context.Context, fn func(tx pgx.Tx) error) error
}

var _ repository.TxManager = (*TxManager)(nil)

func (m *TxManager) WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return fn(nil)
}
