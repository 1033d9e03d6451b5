package codegen

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// ErrAuxiliaryFileMissing matches every *AuxFileError through errors.Is.
var ErrAuxiliaryFileMissing = errors.New("codegen: auxiliary file missing")

// ErrClockOutOfRange is returned when the clock in kHz does not fit the
// u32 FOSC_KHZ_VALUE constant.
var ErrClockOutOfRange = errors.New("codegen: clock out of range")

// MaxClockMHz is the largest clock whose kHz value fits in a u32.
const MaxClockMHz = math.MaxUint32 / 1000

// AuxFileError names a chip-specific source file that could not be read.
type AuxFileError struct {
	Step   string // output name, e.g. "startup.s"
	Source string
	Err    error
}

func (e *AuxFileError) Error() string {
	return fmt.Sprintf("codegen: %s: cannot read %s: %v", e.Step, e.Source, e.Err)
}

func (e *AuxFileError) Is(target error) bool { return target == ErrAuxiliaryFileMissing }

func (e *AuxFileError) Unwrap() error { return e.Err }
