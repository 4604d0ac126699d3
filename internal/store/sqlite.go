package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/emi"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
// Money fields are stored as TEXT decimals so no precision is lost.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// Manually enable foreign keys and WAL mode
	if _, err = db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err = db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates the database tables if they don't already exist. The
// primary key on (loan_id, period_key) enforces the one-payment-per-period
// invariant at the storage layer.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		principal TEXT NOT NULL,
		annual_rate TEXT NOT NULL,
		tenure_months INTEGER NOT NULL DEFAULT 0,
		emi_started INTEGER NOT NULL DEFAULT 0,
		emi_due_day INTEGER NOT NULL DEFAULT 0,
		penalty_amount TEXT NOT NULL DEFAULT '0',
		penalty_started_at DATETIME,
		penalty_waived INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS payments (
		loan_id TEXT NOT NULL,
		period_key TEXT NOT NULL,
		amount TEXT NOT NULL,
		paid_at DATETIME NOT NULL,
		penalty_included INTEGER NOT NULL DEFAULT 0,
		penalty_amount TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY(loan_id, period_key),
		FOREIGN KEY(loan_id) REFERENCES loans(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateLoan inserts a new loan into the database.
func (s *SQLiteStore) CreateLoan(loan *emi.LoanRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO loans (id, principal, annual_rate, tenure_months, emi_started, emi_due_day,
			penalty_amount, penalty_started_at, penalty_waived, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(),
		moneyText(loan.Principal),
		moneyText(loan.AnnualRatePercent),
		loan.TenureMonths,
		loan.EMIStarted,
		loan.EMIDueDay,
		moneyText(loan.PenaltyAmount),
		nullableTime(loan.PenaltyStartedAt),
		loan.PenaltyWaived,
		string(loan.Status),
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// GetLoan retrieves a loan by its ID, including its payment history.
func (s *SQLiteStore) GetLoan(id uuid.UUID) (*emi.LoanRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, principal, annual_rate, tenure_months, emi_started, emi_due_day,
			penalty_amount, penalty_started_at, penalty_waived, status, created_at, updated_at
		FROM loans WHERE id = ?`, id.String())

	loan, err := scanLoan(row)
	if err != nil {
		return nil, err
	}

	if err := s.loadPayments(loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// UpdateLoan updates the loan row. Payments change only through RecordPayment.
func (s *SQLiteStore) UpdateLoan(loan *emi.LoanRecord) error {
	result, err := s.db.Exec(
		`UPDATE loans SET principal = ?, annual_rate = ?, tenure_months = ?, emi_started = ?,
			emi_due_day = ?, penalty_amount = ?, penalty_started_at = ?, penalty_waived = ?,
			status = ?, updated_at = ?
		WHERE id = ?`,
		moneyText(loan.Principal),
		moneyText(loan.AnnualRatePercent),
		loan.TenureMonths,
		loan.EMIStarted,
		loan.EMIDueDay,
		moneyText(loan.PenaltyAmount),
		nullableTime(loan.PenaltyStartedAt),
		loan.PenaltyWaived,
		string(loan.Status),
		loan.UpdatedAt,
		loan.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrLoanNotFound
	}
	return nil
}

// ListLoans retrieves all loans with their payment histories.
func (s *SQLiteStore) ListLoans() ([]*emi.LoanRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, principal, annual_rate, tenure_months, emi_started, emi_due_day,
			penalty_amount, penalty_started_at, penalty_waived, status, created_at, updated_at
		FROM loans ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var loans []*emi.LoanRecord
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loans: %w", err)
	}

	for _, loan := range loans {
		if err := s.loadPayments(loan); err != nil {
			return nil, err
		}
	}
	return loans, nil
}

// RecordPayment inserts a payment under the given period key.
func (s *SQLiteStore) RecordPayment(loanID uuid.UUID, periodKey string, payment emi.PaymentRecord) error {
	if _, err := s.GetLoan(loanID); err != nil {
		return err
	}

	_, err := s.db.Exec(
		`INSERT INTO payments (loan_id, period_key, amount, paid_at, penalty_included, penalty_amount)
		VALUES (?, ?, ?, ?, ?, ?)`,
		loanID.String(),
		periodKey,
		moneyText(payment.Amount),
		payment.PaidAt,
		payment.PenaltyIncluded,
		moneyText(payment.PenaltyAmount),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrPeriodAlreadyPaid
		}
		return fmt.Errorf("failed to record payment: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) loadPayments(loan *emi.LoanRecord) error {
	rows, err := s.db.Query(
		`SELECT period_key, amount, paid_at, penalty_included, penalty_amount
		FROM payments WHERE loan_id = ?`, loan.ID.String())
	if err != nil {
		return fmt.Errorf("failed to load payments: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	loan.Payments = make(map[string]emi.PaymentRecord)
	for rows.Next() {
		var (
			periodKey      string
			amountStr      string
			paidAt         time.Time
			penaltyFlag    bool
			penaltyAmtText string
		)
		if err := rows.Scan(&periodKey, &amountStr, &paidAt, &penaltyFlag, &penaltyAmtText); err != nil {
			return fmt.Errorf("failed to scan payment: %w", err)
		}

		amount, err := moneyValue(amountStr)
		if err != nil {
			return err
		}
		penaltyAmt, err := moneyValue(penaltyAmtText)
		if err != nil {
			return err
		}

		loan.Payments[periodKey] = emi.PaymentRecord{
			Amount:          amount,
			PaidAt:          paidAt,
			PenaltyIncluded: penaltyFlag,
			PenaltyAmount:   penaltyAmt,
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (*emi.LoanRecord, error) {
	var (
		loan         emi.LoanRecord
		idStr        string
		principalStr string
		rateStr      string
		penaltyStr   string
		penaltyStart sql.NullTime
		statusStr    string
	)

	err := row.Scan(&idStr, &principalStr, &rateStr, &loan.TenureMonths, &loan.EMIStarted,
		&loan.EMIDueDay, &penaltyStr, &penaltyStart, &loan.PenaltyWaived, &statusStr,
		&loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to scan loan: %w", err)
	}

	loan.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid loan id %q: %w", idStr, err)
	}
	if loan.Principal, err = moneyValue(principalStr); err != nil {
		return nil, err
	}
	if loan.AnnualRatePercent, err = moneyValue(rateStr); err != nil {
		return nil, err
	}
	if loan.PenaltyAmount, err = moneyValue(penaltyStr); err != nil {
		return nil, err
	}
	if penaltyStart.Valid {
		startedAt := penaltyStart.Time
		loan.PenaltyStartedAt = &startedAt
	}
	loan.Status = emi.Status(statusStr)

	return &loan, nil
}

// nullableTime maps an optional timestamp to its SQL representation.
func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// moneyText renders a float as a lossless TEXT decimal for storage.
func moneyText(val float64) string {
	return decimal.NewFromFloat(val).String()
}

// moneyValue parses a stored TEXT decimal back into a float.
func moneyValue(text string) (float64, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, fmt.Errorf("invalid stored decimal %q: %w", text, err)
	}
	return d.InexactFloat64(), nil
}
