package types

import (
	"fmt"
	"strings"
)

// Reserved prefixes. Tables whose names start with these belong to the
// engine or to SQLite itself and cannot back a list.
const (
	ReservedPrefix = "__"
	sqlitePrefix   = "sqlite_"
)

// ValidateListName reports whether name can be used as a list name.
// It returns an error wrapping ErrInvalidListName otherwise.
func ValidateListName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidListName)
	case strings.HasPrefix(name, ReservedPrefix):
		return fmt.Errorf("%w: %q uses reserved prefix %q", ErrInvalidListName, name, ReservedPrefix)
	case strings.HasPrefix(strings.ToLower(name), sqlitePrefix):
		return fmt.Errorf("%w: %q uses reserved prefix %q", ErrInvalidListName, name, sqlitePrefix)
	}
	return nil
}
