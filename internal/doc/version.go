package doc

// Version constants for the engine and the on-disk revision format.
const (
	// EngineVersion is the patchwork engine version.
	EngineVersion = "0.1.0"

	// RevisionFormatVersion is the stored revision schema version.
	RevisionFormatVersion = "1"
)
