package models

import (
	"strings"
	"time"
)

// Method is the HTTP verb a command is sent with.
type Method string

const (
	MethodGet  Method = "GET"
	MethodPost Method = "POST"
)

// ParseMethod accepts any case and returns "" for unknown verbs.
func ParseMethod(s string) Method {
	switch Method(strings.ToUpper(strings.TrimSpace(s))) {
	case MethodGet:
		return MethodGet
	case MethodPost:
		return MethodPost
	default:
		return ""
	}
}

// PresetGroup names a set of presets. (UserID, GroupName) is unique.
type PresetGroup struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	GroupName string    `json:"group_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Preset is a saved command shown as a button. It always belongs to a group
// owned by the same user.
type Preset struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	GroupID   string    `json:"group_id"`
	Command   string    `json:"command"`
	Type      Method    `json:"type"`
	Button    string    `json:"button"`
	CreatedAt time.Time `json:"created_at"`
}
