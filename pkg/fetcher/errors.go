package fetcher

import (
	"errors"
	"fmt"

	"github.com/gilchrisn/ppi-network-service/pkg/models"
)

// ErrUnknownSource is wrapped when no provider is registered for a source
var ErrUnknownSource = errors.New("unknown interaction source")

// RetrievalError reports a non-200 response or a transport failure
type RetrievalError struct {
	Source     models.Source
	StatusCode int // 0 when no response arrived
	Err        error
}

func (e *RetrievalError) Error() string {
	name := e.Source.DisplayName()
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to retrieve data from %s: HTTP %d", name, e.StatusCode)
	}
	return fmt.Sprintf("failed to retrieve data from %s: %v", name, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// MappingError reports a response record that cannot be projected to an edge.
// Index is -1 when the body as a whole could not be decoded.
type MappingError struct {
	Source models.Source
	Index  int
	Field  string
	Err    error
}

func (e *MappingError) Error() string {
	name := e.Source.DisplayName()
	if e.Index < 0 {
		return fmt.Sprintf("malformed %s response: %v", name, e.Err)
	}
	return fmt.Sprintf("malformed %s record %d: field %s: %v", name, e.Index, e.Field, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

var (
	errFieldMissing = errors.New("missing")
	errFieldType    = errors.New("not a string")
	errFieldEmpty   = errors.New("empty")
)
