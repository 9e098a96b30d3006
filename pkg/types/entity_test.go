package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityStateText(t *testing.T) {
	tests := []struct {
		text    string
		want    EntityState
		wantErr bool
	}{
		{text: "offline", want: StateOffline},
		{text: "online", want: StateOnline},
		{text: "ONLINE", want: StateOnline},
		{text: "pending", wantErr: true},
		{text: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var s EntityState
			err := s.UnmarshalText([]byte(tt.text))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidState)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}

	_, err := EntityState(3).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "EntityState(3)", EntityState(3).String())
}

func TestEntityJSON(t *testing.T) {
	e := Entity{
		ID:           "1",
		Label:        StringPtr("Robin"),
		Version:      2,
		TrunkVersion: Int64Ptr(1),
		BranchID:     "b",
		Properties:   []Property{{Name: "color", Value: "red"}},
		State:        StateOnline,
	}

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "1",
		"label": "Robin",
		"version": 2,
		"trunk_version": 1,
		"branch_id": "b",
		"properties": [{"name": "color", "value": "red"}],
		"state": "online"
	}`, string(data))

	var back Entity
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, e, back)
}

func TestEntityJSON_PropertiesObjectKeepsOrder(t *testing.T) {
	var e Entity
	err := json.Unmarshal([]byte(`{"id":"1","state":"offline","properties":{"z":"1","a":"2","m":"3"}}`), &e)
	require.NoError(t, err)

	assert.Equal(t, []Property{
		{Name: "z", Value: "1"},
		{Name: "a", Value: "2"},
		{Name: "m", Value: "3"},
	}, e.Properties)
	assert.Nil(t, e.Label)
	assert.Equal(t, StateOffline, e.State)
}

func TestEntityJSON_RejectsBadProperties(t *testing.T) {
	var e Entity
	err := json.Unmarshal([]byte(`{"id":"1","properties":{"n":5}}`), &e)
	assert.ErrorIs(t, err, ErrInvalidProperty)

	err = json.Unmarshal([]byte(`{"id":"1","properties":"flat"}`), &e)
	assert.ErrorIs(t, err, ErrInvalidProperty)
}

func TestSavedEntityJSON(t *testing.T) {
	s := SavedEntity{Entity: Entity{ID: "1", Version: 1}, Index: 4}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back SavedEntity
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}

func TestEntityProperties(t *testing.T) {
	e := Entity{ID: "1"}

	_, ok := e.Property("color")
	assert.False(t, ok)

	e.SetProperty("color", "red")
	e.SetProperty("size", "small")
	e.SetProperty("color", "blue")

	v, ok := e.Property("color")
	assert.True(t, ok)
	assert.Equal(t, "blue", v)
	assert.Equal(t, []Property{{Name: "color", Value: "blue"}, {Name: "size", Value: "small"}}, e.Properties)
}

func TestEntityProperties_CaseInsensitive(t *testing.T) {
	e := Entity{ID: "1", Properties: []Property{{Name: "color", Value: "red"}}}

	v, ok := e.Property("Color")
	assert.True(t, ok)
	assert.Equal(t, "red", v)

	e.SetProperty("COLOR", "blue")
	assert.Equal(t, []Property{{Name: "color", Value: "blue"}}, e.Properties)
}

func TestEntityLabelOr(t *testing.T) {
	e := Entity{}
	assert.Equal(t, "fallback", e.LabelOr("fallback"))
	e.Label = StringPtr("")
	assert.Equal(t, "", e.LabelOr("fallback"))
}

func TestNewEntityID(t *testing.T) {
	a := NewEntityID()
	b := NewEntityID()
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestValidateListName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"birds", false},
		{"trees 2024", false},
		{"my_lists", false},
		{"", true},
		{"__lists", true},
		{"__position_birds", true},
		{"sqlite_master", true},
		{"SQLITE_anything", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateListName(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidListName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
