// ABOUTME: Build identity for the echo player
// ABOUTME: Product, manufacturer and version strings shown in logs and the TUI
package version

// Version is the release version, overridden at link time with -ldflags
var Version = "0.3.0"

const (
	// Product is the user-facing product name
	Product = "Audio Echo Generator"

	// Manufacturer identifies the maintainers
	Manufacturer = "Shrimahe-16"
)

// String returns the product line printed by -version
func String() string {
	return Product + " " + Version
}
