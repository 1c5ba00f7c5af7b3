package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "keeps allowed flag with separate value",
			args:    []string{"-n", "10.0.0.11:32249", "-x", "1"},
			allowed: []string{"-n"},
			want:    []string{"-n", "10.0.0.11:32249"},
		},
		{
			name:    "keeps allowed flag with inline value",
			args:    []string{"-store=sqlite", "-other=1"},
			allowed: []string{"-store"},
			want:    []string{"-store=sqlite"},
		},
		{
			name:    "flag followed by another flag has no value",
			args:    []string{"-mirror", "-n", "h:1"},
			allowed: []string{"-mirror", "-n"},
			want:    []string{"-mirror", "-n", "h:1"},
		},
		{
			name:    "no args",
			args:    nil,
			allowed: []string{"-n"},
			want:    []string{},
		},
		{
			name:    "repeated flag preserved in order",
			args:    []string{"-c", "one.json", "-c", "two.json"},
			allowed: []string{"-c"},
			want:    []string{"-c", "one.json", "-c", "two.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	assert.Equal(t, "/p/short.json", ConfigFileFlag([]string{"-c", "/p/short.json"}))
	assert.Equal(t, "/p/long.yaml", ConfigFileFlag([]string{"-config", "/p/long.yaml"}))
	assert.Equal(t, "/p/eq.json", ConfigFileFlag([]string{"-n", "h:1", "-config=/p/eq.json"}))
	assert.Empty(t, ConfigFileFlag([]string{"-x", "1"}))
	assert.Equal(t, "/p/2.json", ConfigFileFlag([]string{"-c", "/p/1.json", "-config", "/p/2.json"}))
}
