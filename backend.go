package winlog

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrUnknownBackend is returned by OpenBackend for names it does not know.
var ErrUnknownBackend = errors.New("unknown backend")

// Backends lists the accepted OpenBackend names.
var Backends = []string{"evtapi", "wmi"}

// OpenBackend returns the Source registered under name. An empty name
// selects evtapi.
func OpenBackend(name string, logger *zap.Logger) (Source, error) {
	switch name {
	case "", "evtapi":
		return NewEventLogSource(logger)
	case "wmi":
		return NewWMISource(logger)
	default:
		return nil, fmt.Errorf("%w %q (want one of %v)", ErrUnknownBackend, name, Backends)
	}
}
