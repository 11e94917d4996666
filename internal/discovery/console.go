package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Console represents a BootMaster web console advertising itself on the network
type Console struct {
	// Instance is the mDNS instance name (e.g., "BootMaster on studio")
	Instance string

	// Hostname is the mDNS hostname (e.g., "studio.local.")
	Hostname string

	// IP is the console address, IPv4 when available
	IP string

	// Port is the HTTP port the console listens on
	Port int

	// Version is the console's build version from the TXT record
	Version string

	// Metadata contains the raw mDNS TXT record data
	// Common fields: "app=bootmaster", "version=1.2.0", "lang=fr"
	Metadata map[string]string

	// DiscoveredAt is when the console was seen
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the console
func (c *Console) String() string {
	if c.Version != "" {
		return fmt.Sprintf("%s (%s) at %s:%d [%s]", c.Instance, c.Hostname, c.IP, c.Port, c.Version)
	}
	return fmt.Sprintf("%s (%s) at %s:%d", c.Instance, c.Hostname, c.IP, c.Port)
}

// BaseURL returns the HTTP base URL for the console
func (c *Console) BaseURL() string {
	return "http://" + net.JoinHostPort(c.IP, strconv.Itoa(c.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (c *Console) GetMetadata(key string) string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[key]
}
