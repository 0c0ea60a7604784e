package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ErrInvalidJSON is returned by ParseJSON for malformed payloads
var ErrInvalidJSON = errors.New("invalid JSON payload")

// JSON wraps gorm.io/datatypes.JSON so version config payloads map to a
// native column type on every supported driver
type JSON struct {
	datatypes.JSON
}

// EmptyObject is the config stored when a version supplies none
func EmptyObject() JSON {
	return JSON{JSON: datatypes.JSON(`{}`)}
}

// ParseJSON validates raw and wraps it. Blank input yields an empty object.
func ParseJSON(raw string) (JSON, error) {
	if raw == "" {
		return EmptyObject(), nil
	}
	if !json.Valid([]byte(raw)) {
		return JSON{}, ErrInvalidJSON
	}
	return JSON{JSON: datatypes.JSON(raw)}, nil
}

func (j JSON) Value() (driver.Value, error) {
	return j.JSON.Value()
}

func (j *JSON) Scan(value interface{}) error {
	return j.JSON.Scan(value)
}

// MarshalJSON emits the raw payload, or {} when nothing was stored
func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j.JSON) == 0 {
		return []byte(`{}`), nil
	}
	return j.JSON.MarshalJSON()
}

func (j *JSON) UnmarshalJSON(b []byte) error {
	return j.JSON.UnmarshalJSON(b)
}

// GormDBDataType picks the column type per driver; MSSQL has no json type.
func (JSON) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	case "sqlite":
		return "JSON"
	}
	return "TEXT"
}
