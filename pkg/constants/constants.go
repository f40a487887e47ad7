// Package constants provides shared constants for the fairscore application.
package constants

// Policy name constants used to key decisions and reports.
const (
	// PolicyOpportunity is the single global threshold policy (subgroup-blind).
	PolicyOpportunity = "opportunity"

	// PolicyOutcomes is the per-subgroup threshold policy (equalized rates).
	PolicyOutcomes = "outcomes"
)

// Scoring constants
const (
	// DTIScale is the debt-to-income ratio at which the derived approval
	// rating bottoms out. rating = 1 - dti/DTIScale, clamped to [0,1].
	DTIScale = 50.0

	// DefaultTargetRate is the approval rate used when none is configured.
	DefaultTargetRate = 0.5
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for
	// applicant CSV files (4 MB)
	DefaultMaxUploadSizeBytes int64 = 4 * 1024 * 1024
)

// Dataset column names expected in applicant CSV files.
const (
	ColumnID        = "id"
	ColumnEthnicity = "derived_ethnicity"
	ColumnRace      = "derived_race"
	ColumnSex       = "derived_sex"
	ColumnDTI       = "debt_to_income_ratio"
)
