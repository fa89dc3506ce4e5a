package model

// Contact is the wire representation of a person stored by the contact
// manager. All fields except address are always present; address may be
// null.
type Contact struct {
	Id          int64   `json:"id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phone_number"`
	Address     *string `json:"address"`
}

// ContactChanges is the request body for creating or updating a contact. A
// nil field is omitted from the request; on update that keeps the stored
// value.
type ContactChanges struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Address     *string `json:"address,omitempty"`
}
