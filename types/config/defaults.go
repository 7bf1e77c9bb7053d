package config

import (
	"time"

	"github.com/graphboard/graphboard/types"
)

const (
	// DefaultServerURL is where relative API base URLs are resolved.
	DefaultServerURL         = "http://localhost:8080"
	DefaultAPIBaseURL        = "/api"
	DefaultRequestTimeout    = 2 * time.Second
	DefaultItemsPerPage      = types.DefaultItemsPerPage
	DefaultPreferenceDriver  = SQLite
	DefaultSQLitePath        = "graphboard.db"
	DefaultDraftQueue        = "graphboard_drafts"
	DefaultSubmitConcurrency = 4
)
