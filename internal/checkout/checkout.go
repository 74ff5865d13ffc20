package checkout

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"CacaoStore/internal/cart"
)

type Status string

const (
	StatusDetails    Status = "details"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
)

var (
	ErrInvalidDetails = errors.New("invalid checkout details")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrInProgress     = errors.New("checkout already in progress")
)

// Details is the contact and shipping form. Payment is simulated and
// collects nothing.
type Details struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return ErrInvalidDetails.Error() + ": " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidDetails }

func (d Details) Normalize() Details {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.Address = strings.TrimSpace(d.Address)
	d.City = strings.TrimSpace(d.City)
	d.PostalCode = strings.TrimSpace(d.PostalCode)
	return d
}

// Validate requires every field; the email must parse as a bare address.
func (d Details) Validate() error {
	d = d.Normalize()

	var bad []string
	if a, err := mail.ParseAddress(d.Email); err != nil || a.Address != d.Email {
		bad = append(bad, "email")
	}
	for _, f := range []struct {
		name, v string
	}{
		{"first_name", d.FirstName},
		{"last_name", d.LastName},
		{"address", d.Address},
		{"city", d.City},
		{"postal_code", d.PostalCode},
	} {
		if f.v == "" {
			bad = append(bad, f.name)
		}
	}

	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	return nil
}

type Receipt struct {
	ID        string          `json:"id"`
	SessionID string          `json:"-"`
	Email     string          `json:"email"`
	Items     []cart.Item     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Count     int             `json:"count"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

func (r Receipt) TotalLabel() string {
	return "$" + r.Total.StringFixed(2)
}
