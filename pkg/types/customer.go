package types

import "strings"

// Address is the billing/shipping address shape used by customers and orders.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty"`
}

// IsZero reports whether no address line has been filled in.
func (a Address) IsZero() bool {
	return strings.TrimSpace(a.Address1) == "" && strings.TrimSpace(a.City) == "" && strings.TrimSpace(a.Postcode) == ""
}

type Customer struct {
	ID        int     `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Username  string  `json:"username"`
	AvatarURL string  `json:"avatar_url"`
	Billing   Address `json:"billing"`
	Shipping  Address `json:"shipping"`
}

// CustomerInput is the payload for creating or updating a customer.
type CustomerInput struct {
	Email     string   `json:"email,omitempty" validate:"omitempty,email"`
	FirstName string   `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  string   `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Username  string   `json:"username,omitempty" validate:"omitempty,max=60"`
	Password  string   `json:"password,omitempty" validate:"omitempty,min=8"`
	Billing   *Address `json:"billing,omitempty"`
	Shipping  *Address `json:"shipping,omitempty"`
}
