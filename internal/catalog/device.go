package catalog

import (
	"fmt"
	"strings"
)

// MediaKind is the kind of simulated target media.
type MediaKind int

const (
	// MediaRemovable is a USB flash drive
	MediaRemovable MediaKind = iota
	// MediaSSD is an external solid-state drive
	MediaSSD
)

// String returns the display name of the media kind
func (k MediaKind) String() string {
	switch k {
	case MediaRemovable:
		return "Removable"
	case MediaSSD:
		return "SSD"
	default:
		return fmt.Sprintf("MediaKind(%d)", int(k))
	}
}

// ParseMediaKind parses "Removable" or "SSD" (case-insensitive).
func ParseMediaKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "removable", "usb":
		return MediaRemovable, nil
	case "ssd":
		return MediaSSD, nil
	default:
		return 0, fmt.Errorf("unknown media kind %q (expected Removable or SSD)", s)
	}
}

// MarshalText implements encoding.TextMarshaler so JSON and YAML carry the name.
func (k MediaKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *MediaKind) UnmarshalText(text []byte) error {
	parsed, err := ParseMediaKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Device describes one selectable target drive.
type Device struct {
	ID          string    `json:"id" yaml:"id"`
	DisplayName string    `json:"displayName" yaml:"name"`
	MediaKind   MediaKind `json:"mediaKind" yaml:"kind"`
}

// String returns a human-readable representation of the device
func (d Device) String() string {
	return fmt.Sprintf("%s (%s, %s)", d.DisplayName, d.ID, d.MediaKind)
}

// DefaultDevices returns the two drives every catalog starts with.
func DefaultDevices() []Device {
	return []Device{
		{ID: "usb-1", DisplayName: "USB Flash Drive (Kingston) - 32GB", MediaKind: MediaRemovable},
		{ID: "usb-2", DisplayName: "External SSD (Samsung T7) - 500GB", MediaKind: MediaSSD},
	}
}

// SyntheticDevice is the drive a rescan "finds".
var SyntheticDevice = Device{
	ID:          "usb-3",
	DisplayName: "SanDisk Ultra Luxe - 64GB (Nouveau)",
	MediaKind:   MediaRemovable,
}
