package graphmod

import (
	"fmt"

	"github.com/formalizer/fzcore/internal/rpc"
)

// ExitCode is an alias for rpc.ExitCode, the exit-code vocabulary shared
// across every CLI front-end and RPC reply header (spec §6). graphmod
// reuses rpc's enum directly rather than keeping a second copy.
type ExitCode = rpc.ExitCode

const (
	ExitOK                   = rpc.ExitOK
	ExitGeneralError         = rpc.ExitGeneralError
	ExitCommandLineError     = rpc.ExitCommandLineError
	ExitUnknownOption        = rpc.ExitUnknownOption
	ExitBadConfigValue       = rpc.ExitBadConfigValue
	ExitBadRequestData       = rpc.ExitBadRequestData
	ExitMissingParameter     = rpc.ExitMissingParameter
	ExitMissingData          = rpc.ExitMissingData
	ExitFileError            = rpc.ExitFileError
	ExitDatabaseError        = rpc.ExitDatabaseError
	ExitCommunicationError   = rpc.ExitCommunicationError
	ExitResidentGraphMissing = rpc.ExitResidentGraphMissing
)

// ValidationError is returned when batch validation fails (spec §4.C
// step 2 and §7's "Structural"/"Referential" categories): the whole
// batch is rejected and nothing is applied.
type ValidationError struct {
	ExitCode    ExitCode
	Message     string
	RequestIdx  int
	RequestKind Kind
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("batch validation failed at request %d (%s): %s", e.RequestIdx, e.RequestKind, e.Message)
}

// ApplicationError is returned when a request fails during application
// after having passed validation. The spec treats this as "should be
// impossible" and catastrophic (§4.C step 3); a reimplementation still
// models it explicitly rather than panicking.
type ApplicationError struct {
	RequestIdx  int
	RequestKind Kind
	Err         error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("catastrophic failure applying request %d (%s): %v", e.RequestIdx, e.RequestKind, e.Err)
}

func (e *ApplicationError) Unwrap() error { return e.Err }
