package discovery

import (
	"testing"
)

func TestConsole_String(t *testing.T) {
	tests := []struct {
		name     string
		console  *Console
		expected string
	}{
		{
			name: "with version",
			console: &Console{
				Instance: "BootMaster on studio",
				Hostname: "studio.local.",
				IP:       "192.168.4.16",
				Port:     8089,
				Version:  "1.2.0",
			},
			expected: "BootMaster on studio (studio.local.) at 192.168.4.16:8089 [1.2.0]",
		},
		{
			name: "without version",
			console: &Console{
				Instance: "lab",
				Hostname: "lab.local.",
				IP:       "10.0.0.5",
				Port:     80,
			},
			expected: "lab (lab.local.) at 10.0.0.5:80",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.console.String(); got != tt.expected {
				t.Errorf("Console.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConsole_BaseURL(t *testing.T) {
	tests := []struct {
		ip   string
		want string
	}{
		{"10.0.0.5", "http://10.0.0.5:8089"},
		{"fe80::1", "http://[fe80::1]:8089"},
	}
	for _, tt := range tests {
		c := &Console{IP: tt.ip, Port: 8089}
		if got := c.BaseURL(); got != tt.want {
			t.Errorf("Console.BaseURL() = %v, want %v", got, tt.want)
		}
	}
}

func TestConsole_GetMetadata(t *testing.T) {
	c := &Console{Metadata: map[string]string{"lang": "en"}}

	if got := c.GetMetadata("lang"); got != "en" {
		t.Errorf("GetMetadata(lang) = %v, want en", got)
	}
	if got := c.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %v, want empty", got)
	}

	var empty Console
	if got := empty.GetMetadata("lang"); got != "" {
		t.Errorf("GetMetadata on nil metadata = %v, want empty", got)
	}
}
