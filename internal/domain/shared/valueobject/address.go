package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Address is a value object representing a shipping address
type Address struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2,omitempty"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
}

// NewAddress creates a new Address value object
func NewAddress(recipientName, phone, line1, line2, city, state, postalCode, country string) (Address, error) {
	a := Address{
		RecipientName: strings.TrimSpace(recipientName),
		Phone:         strings.TrimSpace(phone),
		Line1:         strings.TrimSpace(line1),
		Line2:         strings.TrimSpace(line2),
		City:          strings.TrimSpace(city),
		State:         strings.TrimSpace(state),
		PostalCode:    strings.TrimSpace(postalCode),
		Country:       strings.TrimSpace(country),
	}
	if err := a.Validate(); err != nil {
		return Address{}, err
	}
	return a, nil
}

// Validate checks required address fields
func (a Address) Validate() error {
	if a.RecipientName == "" {
		return errors.New("recipient name is required")
	}
	if a.Line1 == "" {
		return errors.New("address line1 is required")
	}
	if a.City == "" {
		return errors.New("city is required")
	}
	if a.Country == "" {
		return errors.New("country is required")
	}
	return nil
}

// IsEmpty returns true if the address carries no data
func (a Address) IsEmpty() bool {
	return a.RecipientName == "" && a.Line1 == "" && a.City == ""
}

// String returns a single-line representation
func (a Address) String() string {
	parts := []string{a.Line1}
	if a.Line2 != "" {
		parts = append(parts, a.Line2)
	}
	parts = append(parts, a.City, a.State, a.PostalCode, a.Country)
	return strings.Join(parts, ", ")
}

// Value implements driver.Valuer, storing the address as JSON
func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported address scan type %T", value)
	}
}
