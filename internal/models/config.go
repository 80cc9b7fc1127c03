package models

// Configuration models

// Config holds record source configuration
type Config struct {
	Provider string            // sqlite, postgres, mongodb, file
	URI      string            // Connection URI or file path
	Database string            // Database name
	Table    string            // Table or collection holding response rows
	Options  map[string]string // Provider-specific options
}
