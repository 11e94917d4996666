// Package catalog provides the in-memory list of simulated target drives.
//
// No real block devices are enumerated. A catalog starts with two fixture
// drives and supports a simulated "rescan" that, after a fixed delay, may
// append one synthetic drive.
//
// # Rescan Rules
//
// A rescan is a single outstanding operation guarded by a scanning flag:
//   - It is a no-op while a provisioning run is active (see ActivityProbe)
//   - It is a no-op while another rescan is in flight
//   - After the delay it appends the next synthetic drive only if the
//     catalog holds fewer than MaxDevices (3) entries
//   - Further rescans past the cap leave the catalog unchanged
//
// # Usage Example
//
//	cat := catalog.New(catalog.Options{})
//	result, err := cat.Rescan(ctx)
//	if err != nil {
//	    return err
//	}
//	if result.Added != nil {
//	    fmt.Println("Found:", result.Added.DisplayName)
//	}
//
// # Device Selection
//
// Lookup rejects ids that are not in the catalog with ErrUnknownDevice, so a
// stale selection can never reach the provisioning simulator.
//
// # Testing
//
// The rescan delay runs on a schedule.Scheduler. Tests pass a
// schedule.Manual and call Advance to complete a scan without sleeping.
package catalog
