package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EntityState records whether the server has confirmed an entity.
type EntityState int

// Entity states. The numeric values are the ones persisted in the state column.
const (
	// StateOffline marks an entity known only locally.
	StateOffline EntityState = 0
	// StateOnline marks an entity confirmed by the server.
	StateOnline EntityState = 1
)

// String returns "offline" or "online".
func (s EntityState) String() string {
	switch s {
	case StateOffline:
		return "offline"
	case StateOnline:
		return "online"
	default:
		return fmt.Sprintf("EntityState(%d)", int(s))
	}
}

// MarshalText encodes the state as its lowercase name.
func (s EntityState) MarshalText() ([]byte, error) {
	switch s {
	case StateOffline, StateOnline:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidState, int(s))
	}
}

// UnmarshalText accepts "offline" or "online" in any case.
func (s *EntityState) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "offline":
		*s = StateOffline
	case "online":
		*s = StateOnline
	default:
		return fmt.Errorf("%w: %q", ErrInvalidState, string(text))
	}
	return nil
}

// Property is one dynamic key/value attribute of an entity.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Entity is a versioned record belonging to exactly one list.
type Entity struct {
	ID           string      `json:"id"`
	Label        *string     `json:"label,omitempty"`
	Version      int64       `json:"version"`
	TrunkVersion *int64      `json:"trunk_version,omitempty"`
	BranchID     string      `json:"branch_id,omitempty"`
	Properties   []Property  `json:"properties,omitempty"`
	State        EntityState `json:"state"`
}

// SavedEntity is an Entity read back from a Store together with its ordinal
// position in the list. Index is 0-based and stable until the next mutation.
type SavedEntity struct {
	Entity
	Index int `json:"index"`
}

// Property returns the value of the named property and whether it is present.
// Names compare case insensitively, as property columns do in storage.
func (e *Entity) Property(name string) (string, bool) {
	for _, p := range e.Properties {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

// SetProperty replaces the value of an existing property or appends a new one,
// keeping the original position and spelling of existing properties.
func (e *Entity) SetProperty(name, value string) {
	for i := range e.Properties {
		if strings.EqualFold(e.Properties[i].Name, name) {
			e.Properties[i].Value = value
			return
		}
	}
	e.Properties = append(e.Properties, Property{Name: name, Value: value})
}

// LabelOr returns the label, or fallback when the entity has none.
func (e *Entity) LabelOr(fallback string) string {
	if e.Label == nil {
		return fallback
	}
	return *e.Label
}

// UnmarshalJSON accepts properties either as an ordered array of
// {"name","value"} pairs or as a JSON object. Object keys keep their
// document order.
func (e *Entity) UnmarshalJSON(data []byte) error {
	type plain Entity
	var raw struct {
		plain
		Properties json.RawMessage `json:"properties,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Entity(raw.plain)
	e.Properties = nil

	props := strings.TrimSpace(string(raw.Properties))
	if props == "" || props == "null" {
		return nil
	}
	if strings.HasPrefix(props, "[") {
		return json.Unmarshal(raw.Properties, &e.Properties)
	}
	return decodeOrderedObject(raw.Properties, e)
}

// decodeOrderedObject reads a flat JSON object of string values into the
// entity's properties preserving key order.
func decodeOrderedObject(data []byte, e *Entity) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: properties must be an object or array", ErrInvalidProperty)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("%w: property %q must be a string", ErrInvalidProperty, key)
		}
		e.Properties = append(e.Properties, Property{Name: key, Value: value})
	}
	_, err = dec.Token()
	return err
}

// NewEntityID generates an identifier for an entity created locally. It uses
// UUID v7 so ids sort by creation time.
func NewEntityID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// StringPtr returns a pointer to s. Convenient for Entity.Label.
func StringPtr(s string) *string {
	return &s
}

// Int64Ptr returns a pointer to v. Convenient for Entity.TrunkVersion.
func Int64Ptr(v int64) *int64 {
	return &v
}

// UnmarshalJSON decodes the entity fields and the index.
func (s *SavedEntity) UnmarshalJSON(data []byte) error {
	if err := s.Entity.UnmarshalJSON(data); err != nil {
		return err
	}
	var pos struct {
		Index int `json:"index"`
	}
	if err := json.Unmarshal(data, &pos); err != nil {
		return err
	}
	s.Index = pos.Index
	return nil
}
