package extract

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestClassifyNegativeAlwaysExpense(t *testing.T) {
	amt := decimal.RequireFromString("-42.00")
	if got := ClassifyType("Payroll Direct Deposit", amt); got != TxExpense {
		t.Fatalf("negative amount must be expense, got %s", got)
	}
}

func TestClassifyP2PDirection(t *testing.T) {
	amt := decimal.RequireFromString("42.00")
	if got := ClassifyType("Zelle from Jane", amt); got != TxIncome {
		t.Fatalf("Zelle from Jane = %s, want income", got)
	}
	if got := ClassifyType("Zelle payment to Bob", amt); got != TxExpense {
		t.Fatalf("Zelle payment to Bob = %s, want expense", got)
	}
}

func TestClassifyWordBoundary(t *testing.T) {
	// "Stow" must not trip the "to" keyword.
	amt := decimal.RequireFromString("42.00")
	if got := ClassifyType("Stowaway Cafe Refund", amt); got != TxIncome {
		t.Fatalf("partial-word match leaked: got %s", got)
	}
}

func TestClassifyInvestmentIsIncome(t *testing.T) {
	amt := decimal.RequireFromString("500.00")
	if got := ClassifyType("Vanguard 401k Contribution", amt); got != TxIncome {
		t.Fatalf("investment movement = %s, want income", got)
	}
}

func TestClassifyDefaultBySign(t *testing.T) {
	amt := decimal.RequireFromString("10.00")
	if got := ClassifyType("XYZZY", amt); got != TxIncome {
		t.Fatalf("positive default = %s, want income", got)
	}
}

func TestCleanDescription(t *testing.T) {
	got := CleanDescription("PMT REF #443311 ACME SUPPLY")
	if got != "Payment ACME SUPPLY" {
		t.Fatalf("clean = %q", got)
	}
	if got := CleanDescription("XFER ****1234"); got != "Transfer" {
		t.Fatalf("mask strip = %q", got)
	}
	if got := CleanDescription("!!! ???"); got != "" {
		t.Fatalf("all-symbol input should collapse to empty, got %q", got)
	}
}

func TestCategorizerPriority(t *testing.T) {
	c := NewCategorizer()
	// Credit-card-payment phrasing outranks the merchant group.
	if got := c.Category("TARGET CARD PAYMENT AUTOPAY", TxExpense); got != "Credit Card Payment" {
		t.Fatalf("priority: got %q", got)
	}
	if got := c.Category("WALMART SUPERCENTER 1234", TxExpense); got != "Groceries" {
		t.Fatalf("groceries: got %q", got)
	}
	if got := c.Category("TOTALLY UNKNOWN MERCHANT", TxExpense); got != CategoryOtherExpense {
		t.Fatalf("fallback: got %q", got)
	}
}

func TestCategorizerIncome(t *testing.T) {
	c := NewCategorizer()
	if got := c.Category("anything at all", TxIncome); got != CategoryIncome {
		t.Fatalf("income category: got %q", got)
	}
}
