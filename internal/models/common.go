package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// StringList is a JSON-encoded list of strings stored in a single column
type StringList []string

// Value implements the driver.Valuer interface for StringList
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for StringList
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}

	var result StringList
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*s = result
	return nil
}
