// ABOUTME: Display and formatting defaults shared by the CLI commands
// ABOUTME: Central home for limits and date layouts so output stays consistent

package config

// Display settings
const (
	DefaultListLimit   = 20
	DefaultSearchLimit = 20
	DisplayIDLength    = 8
	SeparatorWidth     = 60
	DateFormatShort    = "02 Jan 06 15:04 MST"
	DateFormatLong     = "Mon, 02 Jan 2006 15:04 MST"
)
