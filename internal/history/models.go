package history

import "time"

const SchemaVersion = 2

// Snapshot is the aggregate summary of one analysis run. Individual protocol
// records are never persisted, only counts.
type Snapshot struct {
	SchemaVersion     int       `json:"schema_version"`
	RunID             string    `json:"run_id"`
	Timestamp         time.Time `json:"timestamp"`
	FileCount         int       `json:"file_count"`
	ProtocolCount     int       `json:"protocol_count"`
	DuplicateCount    int       `json:"duplicate_count"`
	ConflictCount     int       `json:"conflict_count"`
	WarningCount      int       `json:"warning_count"`
	ErrorCount        int       `json:"error_count"`
	DocstringCoverage float64   `json:"docstring_coverage"`
	AvgMethods        float64   `json:"avg_methods"`
}

type TrendPoint struct {
	Timestamp       time.Time `json:"timestamp"`
	RunID           string    `json:"run_id"`
	ProtocolCount   int       `json:"protocol_count"`
	DuplicateCount  int       `json:"duplicate_count"`
	ConflictCount   int       `json:"conflict_count"`
	WarningCount    int       `json:"warning_count"`
	DeltaProtocols  int       `json:"delta_protocols"`
	DeltaDuplicates int       `json:"delta_duplicates"`
	DeltaConflicts  int       `json:"delta_conflicts"`
	DeltaCoverage   float64   `json:"delta_coverage"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	ScanCount     int          `json:"scan_count"`
	Points        []TrendPoint `json:"points"`
}
