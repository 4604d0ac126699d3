package emi

import (
	"math"
	"testing"
)

func TestMonthlyInstallment(t *testing.T) {
	tests := []struct {
		name         string
		principal    float64
		annualRate   float64
		tenureMonths int
		expected     float64
	}{
		{
			name:         "Standard consumer loan",
			principal:    50000,
			annualRate:   18,
			tenureMonths: 12,
			// interest = 50000*18*12/1200 = 9000, total 59000, /12
			expected: 4916.67,
		},
		{
			name:         "Zero interest loan",
			principal:    12000,
			annualRate:   0,
			tenureMonths: 12,
			expected:     1000.00,
		},
		{
			name:         "Single installment",
			principal:    5000,
			annualRate:   12,
			tenureMonths: 1,
			// interest = 5000*12*1/1200 = 50
			expected: 5050.00,
		},
		{
			name:         "Maximum tenure",
			principal:    100000,
			annualRate:   10,
			tenureMonths: 60,
			// interest = 100000*10*60/1200 = 50000, total 150000, /60
			expected: 2500.00,
		},
		{
			name:         "Small loan with rounding",
			principal:    1000,
			annualRate:   7,
			tenureMonths: 3,
			// interest = 1000*7*3/1200 = 17.50, total 1017.50, /3 = 339.1666...
			expected: 339.17,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MonthlyInstallment(tt.principal, tt.annualRate, tt.tenureMonths)
			if err != nil {
				t.Fatalf("MonthlyInstallment() returned error: %v", err)
			}
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("MonthlyInstallment() = %.4f, expected %.2f", result, tt.expected)
			}
		})
	}
}

func TestMonthlyInstallmentRejectsInvalidTenure(t *testing.T) {
	for _, tenure := range []int{0, -1, -12} {
		if _, err := MonthlyInstallment(10000, 12, tenure); err == nil {
			t.Errorf("MonthlyInstallment() with tenure %d did not return an error", tenure)
		}
	}
}

func TestMonthlyInstallmentIdentity(t *testing.T) {
	// installment * tenure matches principal + simple interest up to
	// per-installment rounding, and is never below principal/tenure.
	cases := []struct {
		principal float64
		rate      float64
		tenure    int
	}{
		{50000, 18, 12},
		{25000, 0, 24},
		{1, 100, 60},
		{99999.99, 12.5, 36},
		{750, 9, 5},
	}

	for _, tc := range cases {
		installment, err := MonthlyInstallment(tc.principal, tc.rate, tc.tenure)
		if err != nil {
			t.Fatalf("MonthlyInstallment(%v, %v, %d) returned error: %v", tc.principal, tc.rate, tc.tenure, err)
		}

		exact := tc.principal + tc.principal*tc.rate*float64(tc.tenure)/1200
		diff := math.Abs(installment*float64(tc.tenure) - exact)
		// Each installment is rounded to the cent, so the drift over the
		// tenure is bounded by half a cent per installment.
		if diff > 0.005*float64(tc.tenure)+0.001 {
			t.Errorf("installment*tenure = %.4f deviates from %.4f by %.4f", installment*float64(tc.tenure), exact, diff)
		}

		if installment < tc.principal/float64(tc.tenure)-0.005 {
			t.Errorf("installment %.4f fell below principal/tenure %.4f", installment, tc.principal/float64(tc.tenure))
		}
	}
}

func TestTotalExpected(t *testing.T) {
	expected, err := TotalExpected(50000, 18, 12)
	if err != nil {
		t.Fatalf("TotalExpected() returned error: %v", err)
	}
	// 4916.67 * 12
	if math.Abs(expected-59000.04) > 0.001 {
		t.Errorf("TotalExpected() = %.4f, expected 59000.04", expected)
	}
}
