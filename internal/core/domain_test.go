package core

import (
	"testing"
	"time"
)

var day = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("zero amount is valid, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:         "t1",
		Title:      "Lunch",
		Amount:     Money{Cents: 1200},
		Kind:       Expense,
		OccurredAt: day,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{ID: "", Title: "a", Amount: Money{Cents: 1}, Kind: Expense, OccurredAt: day},
		{ID: "t", Title: "", Amount: Money{Cents: 1}, Kind: Expense, OccurredAt: day},
		{ID: "t", Title: "a", Amount: Money{Cents: -1}, Kind: Expense, OccurredAt: day},
		{ID: "t", Title: "a", Amount: Money{Cents: 1}, Kind: "TRANSFER", OccurredAt: day},
		{ID: "t", Title: "a", Amount: Money{Cents: 1}, Kind: Income, OccurredAt: time.Time{}},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{ID: "c1", Name: "Food", Kind: Expense}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Category{ID: "c1", Name: "Food", Kind: "OTHER"}).Validate(); err == nil {
		t.Fatalf("expected error for bad kind")
	}
	if err := (Category{ID: "c1", Name: " ", Kind: Income}).Validate(); err == nil {
		t.Fatalf("expected error for blank name")
	}
}

func TestDetailCategoryName(t *testing.T) {
	d := TransactionDetail{Transaction: Transaction{ID: "t"}}
	if got := d.CategoryName(); got != UncategorizedName {
		t.Fatalf("expected %q, got %q", UncategorizedName, got)
	}
	d.Category = &Category{ID: "c", Name: "Food", Kind: Expense}
	if got := d.CategoryName(); got != "Food" {
		t.Fatalf("expected Food, got %q", got)
	}
}

func TestDetailHasTag(t *testing.T) {
	d := TransactionDetail{Tags: []Tag{{ID: "a", Name: "travel"}}}
	if !d.HasTag("a") {
		t.Fatalf("expected tag a present")
	}
	if d.HasTag("b") {
		t.Fatalf("did not expect tag b")
	}
}

func TestColorOrNeutral(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{"#FFAA00", "#FFAA00"},
		{"#FF112233", "#FF112233"},
		{"", NeutralColor},
		{"red", NeutralColor},
		{"#GG0000", NeutralColor},
		{"#12345", NeutralColor},
	}
	for _, tc := range cases {
		if got := ColorOrNeutral(tc.in); got != tc.out {
			t.Fatalf("%q expected %q, got %q", tc.in, tc.out, got)
		}
	}
}
