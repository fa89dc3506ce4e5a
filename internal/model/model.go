package model

// Contact is the data structure for a person in the contact book. The Id is
// assigned by the store on creation and never changes afterwards. Address is
// the only optional field; it is null in JSON while it was never supplied.
type Contact struct {
	Id          int64   `json:"id"           db:"id"`
	FirstName   string  `json:"first_name"   db:"first_name"`
	LastName    string  `json:"last_name"    db:"last_name"`
	Email       string  `json:"email"        db:"email"`
	PhoneNumber string  `json:"phone_number" db:"phone_number"`
	Address     *string `json:"address"      db:"address"`
}

// ContactChanges is a sparse set of contact fields. A nil field means "not
// supplied" and keeps its current value when the changes are applied to an
// existing contact. The same shape carries the input of the create operation,
// where the validate tags require all fields except the address to be
// supplied and non-empty. The min tag carries the non-empty part: for
// pointer fields, required only rules out nil, not a pointed-to "".
type ContactChanges struct {
	FirstName   *string `json:"first_name"   validate:"required,min=1"`
	LastName    *string `json:"last_name"    validate:"required,min=1"`
	Email       *string `json:"email"        validate:"required,min=1,email"`
	PhoneNumber *string `json:"phone_number" validate:"required,min=1"`
	Address     *string `json:"address"`
}

// Empty reports whether the change-set supplies no field at all.
func (ch ContactChanges) Empty() bool {
	return ch.FirstName == nil &&
		ch.LastName == nil &&
		ch.Email == nil &&
		ch.PhoneNumber == nil &&
		ch.Address == nil
}

// Merge applies the supplied fields of ch onto c and returns the merged
// contact. Fields that are nil in ch keep their value from c. The Id is
// never part of a change-set and is always taken from c.
func Merge(c Contact, ch ContactChanges) Contact {
	if ch.FirstName != nil {
		c.FirstName = *ch.FirstName
	}
	if ch.LastName != nil {
		c.LastName = *ch.LastName
	}
	if ch.Email != nil {
		c.Email = *ch.Email
	}
	if ch.PhoneNumber != nil {
		c.PhoneNumber = *ch.PhoneNumber
	}
	if ch.Address != nil {
		c.Address = ch.Address
	}
	return c
}
