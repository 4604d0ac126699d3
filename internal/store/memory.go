package store

import (
	"sync"

	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/emi"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of Storage, used in tests and
// as a fallback when no database is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	loans map[uuid.UUID]*emi.LoanRecord
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		loans: make(map[uuid.UUID]*emi.LoanRecord),
	}
}

// CreateLoan stores a new loan record.
func (m *MemoryStore) CreateLoan(loan *emi.LoanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[loan.ID] = copyLoan(loan)
	return nil
}

// GetLoan retrieves a loan by its ID.
func (m *MemoryStore) GetLoan(id uuid.UUID) (*emi.LoanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loan, ok := m.loans[id]
	if !ok {
		return nil, ErrLoanNotFound
	}
	return copyLoan(loan), nil
}

// UpdateLoan replaces the stored loan fields. Payments are kept as stored;
// they change only through RecordPayment.
func (m *MemoryStore) UpdateLoan(loan *emi.LoanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.loans[loan.ID]
	if !ok {
		return ErrLoanNotFound
	}
	updated := copyLoan(loan)
	updated.Payments = existing.Payments
	m.loans[loan.ID] = updated
	return nil
}

// ListLoans retrieves all loans.
func (m *MemoryStore) ListLoans() ([]*emi.LoanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loans := make([]*emi.LoanRecord, 0, len(m.loans))
	for _, loan := range m.loans {
		loans = append(loans, copyLoan(loan))
	}
	return loans, nil
}

// RecordPayment inserts a payment under the given period key.
func (m *MemoryStore) RecordPayment(loanID uuid.UUID, periodKey string, payment emi.PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan, ok := m.loans[loanID]
	if !ok {
		return ErrLoanNotFound
	}
	if loan.Payments == nil {
		loan.Payments = make(map[string]emi.PaymentRecord)
	}
	if _, exists := loan.Payments[periodKey]; exists {
		return ErrPeriodAlreadyPaid
	}
	loan.Payments[periodKey] = payment
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

func copyLoan(loan *emi.LoanRecord) *emi.LoanRecord {
	dup := *loan
	dup.Payments = make(map[string]emi.PaymentRecord, len(loan.Payments))
	for key, payment := range loan.Payments {
		dup.Payments[key] = payment
	}
	if loan.PenaltyStartedAt != nil {
		startedAt := *loan.PenaltyStartedAt
		dup.PenaltyStartedAt = &startedAt
	}
	return &dup
}
