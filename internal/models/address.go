package models

// Address is a delivery address attached to the user profile.
type Address struct {
	ID        string `json:"_id,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
	Area      string `json:"area"`
	Street    string `json:"street"`
	Building  string `json:"building,omitempty"`
	Floor     string `json:"floor,omitempty"`
	Apartment string `json:"apartment,omitempty"`
	Notes     string `json:"notes,omitempty"`
	IsDefault bool   `json:"isDefault,omitempty"`
}
