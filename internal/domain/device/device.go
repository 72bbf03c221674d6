// Package device provides the playback device domain entity.
package device

import "strings"

// Device represents a Spotify Connect device registered to the account.
type Device struct {
	ID     string // Spotify device ID
	Name   string // Display name, matched case-insensitively
	Type   string // "Computer", "Smartphone", "Speaker", ...
	Active bool   // Currently the active playback device
}

// Find returns the first device whose name equals name, ignoring case.
// Devices sharing a name are resolved by list order only.
func Find(devices []Device, name string) (Device, bool) {
	for _, d := range devices {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return Device{}, false
}
