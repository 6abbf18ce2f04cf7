package domain

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleRestaurant Role = "restaurant"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleRestaurant
}

// ParseRole accepts the stored role names. An empty string defaults to customer.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleCustomer, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Identity is the handle of an authenticated account.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Account holds credentials; it is never serialized to clients.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the users document keyed by account id.
type Profile struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type CustomerProfile struct {
	UID         string    `json:"uid"`
	DisplayName string    `json:"displayName"`
	PhoneNumber string    `json:"phoneNumber"`
	Address     string    `json:"address"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
