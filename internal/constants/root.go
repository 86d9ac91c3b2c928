package constants

import "time"

const (
	AppName             = "crewlog"
	DefaultKeyringUser  = "database-connection"
	EvidenceKeyringUser = "evidence-backend"
	DefaultConfigPath   = "~/.config/crewlog/crewlog.db"
	DefaultSessionPath  = "~/.config/crewlog/session.db"
	DefaultEvidenceURL  = "file://~/.config/crewlog/evidence"
	Version             = "v0.3.0"

	// DateTimeFormat is used for human-facing timestamps (YYYY-MM-DD HH:MM)
	DateTimeFormat = "2006-01-02 15:04"

	// Ledger quantity bounds (inclusive)
	MinLedgerQuantity = 0
	MaxLedgerQuantity = 10

	// ChecklistKeySeparator joins a section title and a task label into a checklist key
	ChecklistKeySeparator = " - "

	// EvidenceFolderPrefix is the top-level folder photos are uploaded under
	EvidenceFolderPrefix = "work-evidence"

	// Upload constants
	UploadTimeout = 60 * time.Second

	// Postgres pool
	PostgresMaxOpenConns    = 25
	PostgresMaxIdleConns    = 25
	PostgresConnMaxLifetime = 5 * time.Minute
)
