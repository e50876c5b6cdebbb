package workflow

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSettlementSplit_KnownAmounts(t *testing.T) {
	cases := []struct {
		amount   string
		employee string
		fee      string
	}{
		{"1000", "950", "50"},
		{"101", "95", "6"},
		{"100", "95", "5"},
		{"99", "94", "5"},
		{"20", "19", "1"},
		{"19", "18", "1"},
		{"1", "0", "1"},
		{"0", "0", "0"},
	}
	for _, c := range cases {
		amount := decimal.RequireFromString(c.amount)
		employeeAmount, feeAmount := SettlementSplit(amount)
		if employeeAmount.String() != c.employee || feeAmount.String() != c.fee {
			t.Fatalf("SettlementSplit(%s) = (%s, %s), want (%s, %s)",
				c.amount, employeeAmount, feeAmount, c.employee, c.fee)
		}
	}
}

// The two legs must sum exactly to amount for any amount: truncation on the
// employee leg may never leak value.
func TestSettlementSplit_NoRoundingLeakage(t *testing.T) {
	amounts := []string{
		"1", "2", "3", "7", "13", "97", "101", "999", "1000", "1001",
		"123456789", "99999999999999999999",
		// i128-scale values fit the decimal(39,0) column.
		"170141183460469231731687303715884105727",
	}
	for _, s := range amounts {
		amount := decimal.RequireFromString(s)
		employeeAmount, feeAmount := SettlementSplit(amount)

		if !employeeAmount.Add(feeAmount).Equal(amount) {
			t.Fatalf("legs leak value: %s + %s != %s", employeeAmount, feeAmount, amount)
		}
		if !employeeAmount.Equal(employeeAmount.Truncate(0)) {
			t.Fatalf("employee leg is not an integer: %s", employeeAmount)
		}
		if employeeAmount.IsNegative() || feeAmount.IsNegative() {
			t.Fatalf("negative leg for amount %s: (%s, %s)", s, employeeAmount, feeAmount)
		}
		// Employee always gets the truncated 95%.
		want := amount.Mul(decimal.NewFromInt(95)).Div(decimal.NewFromInt(100)).Truncate(0)
		if !employeeAmount.Equal(want) {
			t.Fatalf("employee leg for %s = %s, want %s", s, employeeAmount, want)
		}
	}
}
