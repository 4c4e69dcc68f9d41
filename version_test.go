package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"v1.2.3", "1.2.3"},
		{"1.2.3", "1.2.3"},
		{"v1.2", "1.2.0"},
		{" v2.0.0-rc.1 ", "2.0.0-rc.1"},
		{"v1.0.0+abc123", "1.0.0"},
		{"dev", "dev"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, displayVersion(tt.in))
		})
	}
}

func TestCanonicalVersion(t *testing.T) {
	assert.Equal(t, "v1.2.3", canonicalVersion("1.2.3"))
	assert.Equal(t, "v1.2.3", canonicalVersion("v1.2.3"))
	assert.Equal(t, "1.2.3", normalizeVersion("v1.2.3"))
}

func TestDisplayBuildTime(t *testing.T) {
	assert.Equal(t, "2026-03-01 12:30:00 UTC", displayBuildTime("2026-03-01T13:30:00+01:00"))
	assert.Equal(t, "unknown", displayBuildTime("unknown"))
}
