package model

import "time"

// Shared defaults used by the CLI, the TUI and the HTTP API.
const (
	DefaultAPIURL         = "http://localhost:5020"
	DefaultQueryTimeout   = 5 * time.Second
	DefaultAPIPort        = 3077
	DefaultHistoryLimit   = 100
	DefaultTheme          = "dark"
	DisplayLabelMaxRunes  = 12
	DefaultRequestTimeout = time.Duration(0)
)
