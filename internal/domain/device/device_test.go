package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFind(t *testing.T) {
	devices := []Device{
		{ID: "dev-1", Name: "Kitchen Speaker", Type: "Speaker"},
		{ID: "dev-2", Name: "Office", Type: "Computer", Active: true},
		{ID: "dev-3", Name: "office", Type: "Smartphone"},
	}

	tests := []struct {
		name   string
		query  string
		wantID string
		found  bool
	}{
		{name: "exact match", query: "Kitchen Speaker", wantID: "dev-1", found: true},
		{name: "query case differs", query: "KITCHEN SPEAKER", wantID: "dev-1", found: true},
		{name: "first in list order wins", query: "OFFICE", wantID: "dev-2", found: true},
		{name: "partial name does not match", query: "Kitchen", found: false},
		{name: "no match", query: "Bedroom", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := Find(devices, tt.query)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.wantID, d.ID)
		})
	}
}

func TestFind_CaseInvariant(t *testing.T) {
	for _, registered := range []string{"living room", "Living Room", "LIVING ROOM"} {
		devices := []Device{{ID: "dev-lr", Name: registered}}
		for _, query := range []string{"living room", "Living Room", "LIVING ROOM", "lIvInG rOoM"} {
			d, ok := Find(devices, query)
			assert.True(t, ok, "registered=%q query=%q", registered, query)
			assert.Equal(t, "dev-lr", d.ID)
		}
	}
}

func TestFind_Stable(t *testing.T) {
	devices := []Device{{ID: "a", Name: "Den"}, {ID: "b", Name: "den"}}
	first, _ := Find(devices, "den")
	second, _ := Find(devices, "den")
	assert.Equal(t, first, second)
}

func TestFind_Empty(t *testing.T) {
	_, ok := Find(nil, "Kitchen")
	assert.False(t, ok)
}
