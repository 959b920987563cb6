package gcode

import (
	"errors"
	"fmt"
)

// Processor transforms body of a single region. Process receives lines of
// the region only (markers excluded) and returns lines replacing them for
// the next processor attached to the same region.
type Processor interface {
	Name() string
	Affinity() Region
	Process(lines []string) ([]string, error)
}

var (
	// ErrProcessorFailure classifies errors coming from processors.
	ErrProcessorFailure = errors.New("processor failure")
	// ErrAffinity is returned when processor cannot be attached to its region.
	ErrAffinity = errors.New("processor affinity")
)

// ProcessorError reports failed processor and region it was working on.
type ProcessorError struct {
	Processor string
	Region    Region
	Err       error
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("processor %q failed on %s: %v", e.Processor, e.Region, e.Err)
}

func (e *ProcessorError) Unwrap() error {
	return e.Err
}

func (e *ProcessorError) Is(target error) bool {
	return target == ErrProcessorFailure
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc struct {
	ID     string
	Region Region
	Fn     func(lines []string) ([]string, error)
}

func (p ProcessorFunc) Name() string     { return p.ID }
func (p ProcessorFunc) Affinity() Region { return p.Region }

func (p ProcessorFunc) Process(lines []string) ([]string, error) {
	return p.Fn(lines)
}
