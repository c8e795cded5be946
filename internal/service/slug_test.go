package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Widgets", "widgets"},
		{"spaces", "Smart Watch Pro", "smart-watch-pro"},
		{"punctuation", "ACME, Inc.", "acme-inc"},
		{"collapses runs", "a  --  b", "a-b"},
		{"trims edges", "  hello  ", "hello"},
		{"unicode letters", "Кофе Молотый", "кофе-молотый"},
		{"digits", "iPhone 15 Pro", "iphone-15-pro"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestUniqueSlug(t *testing.T) {
	taken := map[string]struct{}{}
	assert.Equal(t, "widgets", UniqueSlug("widgets", taken))

	taken["widgets"] = struct{}{}
	assert.Equal(t, "widgets-1", UniqueSlug("widgets", taken))

	taken["widgets-1"] = struct{}{}
	assert.Equal(t, "widgets-2", UniqueSlug("widgets", taken))
}

func TestUniqueSlugEmptyBase(t *testing.T) {
	assert.Equal(t, "item", UniqueSlug("", map[string]struct{}{}))
}
