package keyring

import (
	"errors"
	"fmt"
)

// ErrNoMasterKey is returned when a MasterKey strategy is resolved on a
// keyring that has no master key loaded (e.g. before login).
var ErrNoMasterKey = errors.New("no master key in the current security context")

// Stage identifies which step of an envelope open operation failed.
type Stage string

const (
	StageDeserializeData Stage = "deserialize-data"
	StageDeserializeIV   Stage = "deserialize-iv"
	StageDecrypt         Stage = "decrypt"
	StageTextDecode      Stage = "text-decode"
)

// OpenError reports an envelope open failure together with the stage that
// produced it, so callers can tell malformed framing apart from a key
// mismatch.
type OpenError struct {
	Stage Stage
	Err   error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open envelope: %s: %v", e.Stage, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }
