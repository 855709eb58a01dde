package domain

import (
	"errors"
	"strings"
)

// ValidationErrors collects every problem found while building a record.
type ValidationErrors []error

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, err := range v {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	return v
}

func collect(errs []error) error {
	filtered := errs[:0]
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return ValidationErrors(filtered)
}

// AtPath stamps path onto the typed errors inside err that do not carry one.
func AtPath(path string, err error) error {
	if err == nil || path == "" {
		return err
	}
	var many ValidationErrors
	if errors.As(err, &many) {
		out := make(ValidationErrors, 0, len(many))
		for _, inner := range many {
			out = append(out, atPath(path, inner))
		}
		return out
	}
	return atPath(path, err)
}

func atPath(path string, err error) error {
	if path == "" {
		return err
	}
	switch typed := err.(type) {
	case *MissingFieldError:
		if typed.Path == "" {
			copied := *typed
			copied.Path = path
			return &copied
		}
	case *UnknownFieldError:
		if typed.Path == "" {
			copied := *typed
			copied.Path = path
			return &copied
		}
	case *MalformedIdentifierError:
		if typed.Path == "" {
			copied := *typed
			copied.Path = path
			return &copied
		}
	case *DuplicateIdentifierError:
		if typed.Path == "" {
			copied := *typed
			copied.Path = path
			return &copied
		}
	case *NotFoundError:
		if typed.Path == "" {
			copied := *typed
			copied.Path = path
			return &copied
		}
	case *ConstraintViolationError:
		if typed.Path == "" {
			copied := *typed
			copied.Path = path
			return &copied
		}
	}
	return err
}

func requireField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &MissingFieldError{Field: field}
	}
	return nil
}

func optionalIdentifier(kind Kind, id string) error {
	if id == "" {
		return nil
	}
	return ValidateIdentifier(kind, id)
}

// FieldSet names record fields, used to mark inherited values.
type FieldSet map[string]struct{}

func NewFieldSet(fields ...string) FieldSet {
	set := make(FieldSet, len(fields))
	for _, field := range fields {
		set[field] = struct{}{}
	}
	return set
}

func (s FieldSet) Has(field string) bool {
	_, ok := s[field]
	return ok
}
