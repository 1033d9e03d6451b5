package regschema

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrSchemaNotFound means the chip has no register description.
	ErrSchemaNotFound = errors.New("regschema: no register description")

	// ErrSchemaParse matches every *ParseError through errors.Is.
	ErrSchemaParse = errors.New("regschema: malformed register description")
)

// ParseError reports a malformed document and the path of the offending
// element, e.g. config_registers[2].fields[0].mask.
type ParseError struct {
	File string
	Path string
	Line int // 0 when the format does not track lines
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "(document)"
	}
	if e.Line > 0 {
		loc = fmt.Sprintf("%s (line %d)", loc, e.Line)
	}
	if e.File != "" {
		loc = e.File + ": " + loc
	}
	msg := e.Msg
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return "regschema: " + loc + ": " + msg
}

// Is lets errors.Is(err, ErrSchemaParse) match.
func (e *ParseError) Is(target error) bool { return target == ErrSchemaParse }

func (e *ParseError) Unwrap() error { return e.Err }
