package entity

// AddressType is the label a customer gives a delivery address.
type AddressType string

const (
	AddressTypeHome  AddressType = "Home"
	AddressTypeWork  AddressType = "Work"
	AddressTypeOther AddressType = "Other"
)

// Address is a delivery address captured at checkout and owned by the order.
type Address struct {
	FullName string      `json:"fullName"`
	Phone    string      `json:"phone"`
	Line1    string      `json:"line1"`
	Line2    string      `json:"line2,omitempty"`
	City     string      `json:"city"`
	State    string      `json:"state"`
	Pin      string      `json:"pin"`
	Type     AddressType `json:"type"`
}
