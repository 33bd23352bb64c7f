package ir

// Version constants for the record format and the tool.
const (
	// FormatVersion is the version of the journaled change format.
	FormatVersion = "1"

	// Version is the obstore version.
	Version = "0.1.0"
)
