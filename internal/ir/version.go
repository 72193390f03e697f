package ir

const (
	// FormatVersion is the version of the snapshot export format.
	FormatVersion = "1"

	// ToolVersion is the latchlist release version.
	ToolVersion = "0.1.0"
)
