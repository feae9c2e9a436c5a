package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParsePrice(t *testing.T) {
	cases := map[string]string{
		"10":    "10.00",
		"12.5":  "12.50",
		"12,5":  "12.50",
		" 7,25": "7.25",
		"0":     "0.00",
		"2.500": "2.50",
	}
	for in, want := range cases {
		d, err := ParsePrice(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got := FormatMoney(d); got != want {
			t.Fatalf("parse %q: want %s, got %s", in, want, got)
		}
	}
}

func TestParsePrice_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1,2,3", "1.2,3", "-4", "1.005", "3,141"} {
		if _, err := ParsePrice(in); !errors.Is(err, ErrValidation) {
			t.Fatalf("parse %q: expected validation error, got %v", in, err)
		}
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole("admin"); err != nil || r != RoleAdmin {
		t.Fatalf("admin: %v %v", r, err)
	}
	if r, err := ParseRole(" Serveur "); err != nil || r != RoleServer {
		t.Fatalf("serveur: %v %v", r, err)
	}
	if _, err := ParseRole("manager"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSumItems(t *testing.T) {
	items := []OrderItem{
		{Quantity: 2, Price: decimal.NewFromInt(10)},
		{Quantity: 1, Price: decimal.RequireFromString("12.00")},
	}
	if got := FormatMoney(SumItems(items)); got != "32.00" {
		t.Fatalf("expected 32.00, got %s", got)
	}
	if !SumItems(nil).IsZero() {
		t.Fatalf("empty sum must be zero")
	}
}

func TestUserPublic(t *testing.T) {
	u := User{ID: 1, Username: "ali", Password: "1234", Role: RoleServer}
	if u.Public().Password != "" {
		t.Fatalf("password leaked")
	}
	if u.IsAdmin() {
		t.Fatalf("serveur is not admin")
	}
}
