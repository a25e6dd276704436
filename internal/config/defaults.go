package config

// Default configuration values.
const (
	DefaultTargetType     = "duckdb"
	DefaultStateFile      = ".leapflow/state.db"
	DefaultEnv            = "dev"
	DefaultOutput         = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel       = "warn"
	DefaultUIPort         = 8765
	DefaultViewportWidth  = 960
	DefaultViewportHeight = 540
	DefaultPostgresPort   = 5432
)

// ApplyTargetDefaults applies default values to a TargetConfig based on the target type.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	if t.Type == "" {
		t.Type = DefaultTargetType
	}

	// File-based targets accept either key for the file path.
	if t.Path == "" && t.Database != "" && t.Type != "postgres" {
		t.Path = t.Database
	}

	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}

	if t.Type == "postgres" && t.Port == 0 {
		t.Port = DefaultPostgresPort
	}
}
