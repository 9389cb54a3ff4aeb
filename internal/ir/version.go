package ir

// Version constants for program files and the replay engine.
const (
	// FormatVersion is the program file format version.
	FormatVersion = "1"

	// EngineVersion is the algot engine version.
	EngineVersion = "0.1.0"
)
