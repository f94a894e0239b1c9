package entity

import (
	"bytes"
	"strconv"
)

type ID string

func NewID(id any) ID {
	switch v := id.(type) {
	case string:
		return ID(v)
	case uint:
		return ID(strconv.FormatUint(uint64(v), 10))
	}
	panic("unsupported ID type")
}

// ParseID validates an ID received from a client.
func ParseID(s string) (ID, error) {
	id := ID(s)
	if err := id.Validate("id"); err != nil {
		return "", err
	}
	return id, nil
}

func (id ID) String() string { return string(id) }
func (id ID) IsZero() bool   { return id == "" || id == "0" }

// Uint returns the numeric form of id.
func (id ID) Uint() (uint, error) {
	n, err := strconv.ParseUint(id.String(), 10, 64)
	if err != nil {
		return 0, &ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	return uint(n), nil
}

// Validate reports a malformed non-empty id against field.
func (id ID) Validate(field string) error {
	if id == "" {
		return nil
	}
	if _, err := strconv.ParseUint(id.String(), 10, 64); err != nil {
		return &ValidationError{Field: field, Message: "must be a positive integer"}
	}
	return nil
}

// UnmarshalJSON accepts both "12" and 12.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	s := string(data)
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		var err error
		if s, err = strconv.Unquote(s); err != nil {
			return &ValidationError{Field: "id", Message: "must be a positive integer"}
		}
	}
	if err := ID(s).Validate("id"); err != nil {
		return err
	}
	*id = ID(s)
	return nil
}
