package server

import (
	"database/sql"
	"time"
)

// Gateway reports the chat connection state.
type Gateway interface {
	Connected() bool
}

// LedgerView is the read side of the dedup ledger.
type LedgerView interface {
	Len() int
	Snapshot() []string
}

// Deps are the collaborators the handlers read from. DB is nil when history is disabled.
type Deps struct {
	DB      *sql.DB
	Gateway Gateway
	Ledger  LedgerView
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	db      *sql.DB
	gateway Gateway
	ledger  LedgerView
	started time.Time
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{
		db:      deps.DB,
		gateway: deps.Gateway,
		ledger:  deps.Ledger,
		started: time.Now(),
	}
}
