package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/bootmaster/internal/logging"
)

const (
	// ServiceType is the mDNS service type BootMaster consoles advertise
	ServiceType = "_bootmaster._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for console discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is assumed when an entry carries no port
	DefaultPort = 8089

	// AppTag is the value of the "app" TXT key on BootMaster consoles
	AppTag = "bootmaster"
)

// Scanner handles mDNS console discovery
type Scanner struct {
	// Timeout is the maximum time to wait for consoles
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan browses for consoles until the timeout or ctx ends and returns every
// console seen, deduplicated by instance name.
func (s *Scanner) Scan(ctx context.Context) ([]*Console, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	var (
		mu       sync.Mutex
		consoles []*Console
		seen     = make(map[string]bool)
	)
	go func() {
		for entry := range entries {
			console := s.parseServiceEntry(entry)
			if console == nil {
				continue
			}
			mu.Lock()
			if !seen[console.Instance] {
				seen[console.Instance] = true
				consoles = append(consoles, console)
				logging.Debug("Console discovered", zap.String("console", console.String()))
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	out := make([]*Console, len(consoles))
	copy(out, consoles)
	return out, nil
}

// parseServiceEntry converts a zeroconf service entry to a Console.
// Returns nil if the entry is not a usable BootMaster console.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Console {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	metadata := parseTXT(entry.Text)
	if app, ok := metadata["app"]; ok && !strings.EqualFold(app, AppTag) {
		return nil
	}

	// prefer IPv4
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Console{
		Instance:     unescapeInstance(entry.Instance),
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Version:      metadata["version"],
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// parseTXT splits "key=value" TXT records. A key without value maps to "".
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		parts := strings.SplitN(txt, "=", 2)
		if parts[0] == "" {
			continue
		}
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}
	return metadata
}

// unescapeInstance removes the DNS-SD backslash escaping zeroconf leaves in
// instance names ("BootMaster\ on\ studio").
func unescapeInstance(name string) string {
	return strings.ReplaceAll(name, `\`, "")
}

// Scan is a convenience function to browse for consoles with a custom timeout
func Scan(ctx context.Context, timeout time.Duration) ([]*Console, error) {
	scanner := NewScanner()
	if timeout > 0 {
		scanner.Timeout = timeout
	}
	return scanner.Scan(ctx)
}

// Advertiser publishes a console on the local network until Shutdown.
type Advertiser struct {
	server   *zeroconf.Server
	instance string
	once     sync.Once
}

// AdvertiseTXT builds the TXT records a console publishes.
func AdvertiseTXT(version, lang string) []string {
	txt := []string{"app=" + AppTag, "path=/"}
	if version != "" {
		txt = append(txt, "version="+version)
	}
	if lang != "" {
		txt = append(txt, "lang="+lang)
	}
	return txt
}

// Advertise registers a console instance for ServiceType on port.
func Advertise(instance string, port int, txt []string) (*Advertiser, error) {
	if instance == "" {
		return nil, fmt.Errorf("mDNS instance name is required")
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising console via mDNS",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return &Advertiser{server: server, instance: instance}, nil
}

// Instance returns the advertised instance name
func (a *Advertiser) Instance() string {
	return a.instance
}

// Shutdown withdraws the advertisement. Safe to call more than once.
func (a *Advertiser) Shutdown() {
	if a == nil {
		return
	}
	a.once.Do(func() {
		a.server.Shutdown()
		logging.Debug("mDNS advertisement withdrawn", zap.String("instance", a.instance))
	})
}
