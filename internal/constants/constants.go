package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

// Textual date formats at the system boundaries. Admin input and the
// external feed both speak DD-Mon-YYYY; storage keys are DayKeyFormat.
const (
	DayInputFormat = "02-Jan-2006"
	FeedTimeFormat = "02-Jan-2006 15:04"
	DayKeyFormat   = "2006-01-02"
)
