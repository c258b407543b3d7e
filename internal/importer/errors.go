package importer

import (
	"fmt"

	"github.com/cashcheck-dev/cashcheck/internal/model"
)

// ParseError reports a row that could not be converted. Chase imports stop
// at the first one.
type ParseError struct {
	Provider model.Provider
	Line     int
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Provider, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
