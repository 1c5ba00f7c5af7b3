package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	assert.Equal(t, MethodGet, ParseMethod("get"))
	assert.Equal(t, MethodPost, ParseMethod(" POST "))
	assert.Equal(t, Method(""), ParseMethod("PUT"))
}

func TestUser_PublicHidesHash(t *testing.T) {
	u := User{ID: "1", Email: "u@x.com", PasswordHash: "$argon2id$..."}
	p := u.Public()
	assert.Empty(t, p.PasswordHash)
	assert.Equal(t, "$argon2id$...", u.PasswordHash, "original must be untouched")
}

func TestPreset_JSONFieldNames(t *testing.T) {
	p := Preset{ID: "p", UserID: "u", GroupID: "g", Command: "get status", Type: MethodGet, Button: "Status",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	b, err := json.Marshal(p)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, k := range []string{"id", "user_id", "group_id", "command", "type", "button", "created_at"} {
		assert.Contains(t, m, k)
	}
	assert.Equal(t, "GET", m["type"])
}
