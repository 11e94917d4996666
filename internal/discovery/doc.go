// Package discovery advertises and finds BootMaster web consoles with
// multicast DNS.
//
// A running console registers itself under the "_bootmaster._tcp" service
// type with TXT records carrying "app=bootmaster", its version and its
// interface language. The "consoles" command browses for that service type
// and lists what answers.
//
// # Usage Example
//
//	adv, err := discovery.Advertise("BootMaster on studio", 8089,
//	    discovery.AdvertiseTXT(version.Version, "fr"))
//	if err != nil {
//	    return err
//	}
//	defer adv.Shutdown()
//
//	consoles, err := discovery.Scan(ctx, 3*time.Second)
//	for _, c := range consoles {
//	    fmt.Println(c.String(), c.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Consoles must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
