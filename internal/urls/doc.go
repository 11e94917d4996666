// Package urls provides centralized constants for the external links shown
// to users: official downloads, hardware requirements and tooling.
//
// All URLs are defined here as exported constants so they can be updated in
// a single location before release.
//
// Usage:
//
//	import "github.com/muurk/bootmaster/internal/urls"
//
//	fmt.Printf("Download the official image: %s\n", urls.Windows11Download)
package urls
