package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/roshank8848/contactmanager-backend/internal/model"
)

// Listing defaults, shared with the HTTP layer.
const (
	DefaultSkip  = 0
	DefaultLimit = 100
)

// ListParams narrows and pages the result of the List operation.
type ListParams struct {
	// Skip is the number of matching contacts left out at the beginning of
	// the result. Negative values are treated as DefaultSkip.
	Skip int
	// Limit caps the number of returned contacts. Values below 1 are treated
	// as DefaultLimit.
	Limit int
	// Search filters contacts whose first name, last name or email contains
	// the text, case-insensitively. Empty means no filtering.
	Search string
}

// Store implements the contact persistence and query contract on top of a
// relational database. The hot statements are prepared once on construction;
// transactions never outlive a single operation. A Store can be shared by
// any number of concurrent requests.
type Store struct {
	db            *sqlx.DB
	validate      *validator.Validate
	insert        *sqlx.NamedStmt
	selectWhereId *sqlx.Stmt
}

// New wraps the given sql database into the sqlx layer and prepares the
// statements that run on every request. The database argument can be a real
// database for production use or a mock database within unit tests.
func New(sqlDB *sql.DB) (*Store, error) {
	s := &Store{
		db:       sqlx.NewDb(sqlDB, "mysql"),
		validate: newValidator(),
	}

	// Prepared statements offer a significant speed increase if executed
	// many times.
	var err error
	s.insert, err = s.db.PrepareNamed(`
		INSERT INTO contacts (first_name, last_name, email, phone_number, address)
		VALUES (:first_name, :last_name, :email, :phone_number, :address)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert statement: %w", err)
	}
	s.selectWhereId, err = s.db.Preparex(`
		SELECT * FROM contacts WHERE id = ?
	`)
	if err != nil {
		s.insert.Close()
		return nil, fmt.Errorf("preparing select statement: %w", err)
	}
	return s, nil
}

// newValidator builds the rule engine for contact inputs. Validation
// messages carry the JSON names of the fields, not the Go ones.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Create validates the input and inserts a new contact. All fields except
// the address must be supplied and non-empty, and the email must be
// syntactically valid. The returned contact carries the freshly assigned id.
// Nothing is persisted when validation fails.
func (s *Store) Create(ctx context.Context, in model.ContactChanges) (model.Contact, error) {
	if err := s.validateNewContact(in); err != nil {
		return model.Contact{}, err
	}
	contact := model.Merge(model.Contact{}, in)
	result, err := s.insert.ExecContext(ctx, &contact)
	if err != nil {
		return model.Contact{}, fmt.Errorf("inserting contact: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Contact{}, fmt.Errorf("reading id of new contact: %w", err)
	}
	contact.Id = id
	return contact, nil
}

// List returns contacts in insertion order, skipping the first p.Skip
// matches and returning at most p.Limit of the remainder. A non-empty
// p.Search keeps only contacts whose first name, last name or email contains
// the text as a case-insensitive substring. An empty result is not an error.
func (s *Store) List(ctx context.Context, p ListParams) ([]model.Contact, error) {
	skip := p.Skip
	if skip < 0 {
		skip = DefaultSkip
	}
	limit := p.Limit
	if limit < 1 {
		limit = DefaultLimit
	}

	contacts := []model.Contact{}
	var err error
	if p.Search != "" {
		pattern := "%" + strings.ToLower(p.Search) + "%"
		err = s.db.SelectContext(ctx, &contacts, `
			SELECT *
			FROM contacts
			WHERE LOWER(first_name) LIKE ?
				OR LOWER(last_name) LIKE ?
				OR LOWER(email) LIKE ?
			ORDER BY id
			LIMIT ?
			OFFSET ?`, pattern, pattern, pattern, limit, skip)
	} else {
		err = s.db.SelectContext(ctx, &contacts, `
			SELECT *
			FROM contacts
			ORDER BY id
			LIMIT ?
			OFFSET ?`, limit, skip)
	}
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	return contacts, nil
}

// Get returns the contact with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (model.Contact, error) {
	var contact model.Contact
	err := s.selectWhereId.GetContext(ctx, &contact, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Contact{}, ErrNotFound
	}
	if err != nil {
		return model.Contact{}, fmt.Errorf("selecting contact %d: %w", id, err)
	}
	return contact, nil
}

// Update overwrites exactly the fields supplied in the change-set on the
// contact with the given id and returns the merged contact. Fields absent
// from the change-set keep their stored values. The existence check and the
// update run in one transaction so that a failed update leaves no partial
// write behind. Concurrent updates of the same contact are not serialized
// beyond that; the last commit wins.
func (s *Store) Update(ctx context.Context, id int64, changes model.ContactChanges) (model.Contact, error) {
	if changes.Empty() {
		return model.Contact{}, newValidationError("changes", "at least one field must be supplied")
	}
	if err := s.validateChanges(changes); err != nil {
		return model.Contact{}, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Contact{}, fmt.Errorf("beginning update of contact %d: %w", id, err)
	}
	defer tx.Rollback()

	var existing model.Contact
	err = tx.GetContext(ctx, &existing, `
		SELECT * FROM contacts WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Contact{}, ErrNotFound
	}
	if err != nil {
		return model.Contact{}, fmt.Errorf("selecting contact %d: %w", id, err)
	}

	assignments, args := updateClause(changes)
	args = append(args, id)
	if _, err := tx.ExecContext(ctx, "UPDATE contacts SET "+assignments+" WHERE id = ?", args...); err != nil {
		return model.Contact{}, fmt.Errorf("updating contact %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return model.Contact{}, fmt.Errorf("committing update of contact %d: %w", id, err)
	}
	return model.Merge(existing, changes), nil
}

// updateClause turns the supplied fields of a change-set into the SET part
// of an UPDATE statement and the matching argument list.
func updateClause(changes model.ContactChanges) (string, []interface{}) {
	var assignments []string
	var args []interface{}
	if changes.FirstName != nil {
		assignments = append(assignments, "first_name=?")
		args = append(args, *changes.FirstName)
	}
	if changes.LastName != nil {
		assignments = append(assignments, "last_name=?")
		args = append(args, *changes.LastName)
	}
	if changes.Email != nil {
		assignments = append(assignments, "email=?")
		args = append(args, *changes.Email)
	}
	if changes.PhoneNumber != nil {
		assignments = append(assignments, "phone_number=?")
		args = append(args, *changes.PhoneNumber)
	}
	if changes.Address != nil {
		assignments = append(assignments, "address=?")
		args = append(args, *changes.Address)
	}
	return strings.Join(assignments, ", "), args
}

// Delete removes the contact with the given id permanently and returns its
// state as it was immediately before the deletion. Reading the contact and
// deleting it happen in one transaction.
func (s *Store) Delete(ctx context.Context, id int64) (model.Contact, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Contact{}, fmt.Errorf("beginning delete of contact %d: %w", id, err)
	}
	defer tx.Rollback()

	var contact model.Contact
	err = tx.GetContext(ctx, &contact, `
		SELECT * FROM contacts WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Contact{}, ErrNotFound
	}
	if err != nil {
		return model.Contact{}, fmt.Errorf("selecting contact %d: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `
		DELETE FROM contacts WHERE id = ?
	`, id)
	if err != nil {
		return model.Contact{}, fmt.Errorf("deleting contact %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return model.Contact{}, fmt.Errorf("deleting contact %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return model.Contact{}, ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return model.Contact{}, fmt.Errorf("committing delete of contact %d: %w", id, err)
	}
	return contact, nil
}

// validateNewContact checks the input of the create operation: all fields
// except the address are required and the email must be well-formed.
func (s *Store) validateNewContact(in model.ContactChanges) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("validating contact: %w", err)
	}
	fields := make(map[string]string, len(fieldErrors))
	for _, fe := range fieldErrors {
		fields[fe.Field()] = reasonFor(fe.Tag())
	}
	return &ValidationError{Fields: fields}
}

// validateChanges checks only the fields supplied in a change-set. Required
// fields may be omitted entirely on update but must not be emptied, and a
// supplied email must still be well-formed.
func (s *Store) validateChanges(changes model.ContactChanges) error {
	fields := map[string]string{}
	if changes.FirstName != nil && *changes.FirstName == "" {
		fields["first_name"] = "must not be empty"
	}
	if changes.LastName != nil && *changes.LastName == "" {
		fields["last_name"] = "must not be empty"
	}
	if changes.PhoneNumber != nil && *changes.PhoneNumber == "" {
		fields["phone_number"] = "must not be empty"
	}
	if changes.Email != nil {
		if *changes.Email == "" {
			fields["email"] = "must not be empty"
		} else if err := s.validate.Var(*changes.Email, "email"); err != nil {
			fields["email"] = reasonFor("email")
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// reasonFor maps a failed validation tag to a human readable reason.
func reasonFor(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "min":
		return "must not be empty"
	case "email":
		return "must be a valid email address"
	}
	return "is invalid"
}
