package tablebuilder

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/jsonparquet/pkg/config"
)

// UnexpectedFieldBehavior decides what happens to input fields that the
// target schema does not declare.
type UnexpectedFieldBehavior int

const (
	// Ignore drops unknown fields
	Ignore UnexpectedFieldBehavior = iota
	// Error rejects the whole input on the first unknown field
	Error
	// InferType appends unknown top-level fields to the schema with an
	// inferred type
	InferType
)

func (b UnexpectedFieldBehavior) String() string {
	switch b {
	case Ignore:
		return "ignore"
	case Error:
		return "error"
	case InferType:
		return "infer"
	default:
		return fmt.Sprintf("UnexpectedFieldBehavior(%d)", int(b))
	}
}

// ParseUnexpectedFieldBehavior maps the configuration names error, ignore
// and infer to a behavior.
func ParseUnexpectedFieldBehavior(s string) (UnexpectedFieldBehavior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignore", "":
		return Ignore, nil
	case "error":
		return Error, nil
	case "infer", "infer_type", "infertype":
		return InferType, nil
	default:
		return Ignore, fmt.Errorf("unknown unexpected field behavior %q", s)
	}
}

// Options configures a Builder
type Options struct {
	UnexpectedFieldBehavior UnexpectedFieldBehavior
	// BlockSize is the target number of input bytes parsed per block.
	// Documents are never split across blocks.
	BlockSize int
	// Workers bounds how many blocks are parsed at once
	Workers int
	// Allocator backs the arrow arrays; nil uses the Go allocator
	Allocator memory.Allocator
}

// DefaultOptions returns the defaults used by the native converter
func DefaultOptions() Options {
	return Options{
		UnexpectedFieldBehavior: Ignore,
		BlockSize:               config.DefaultBlockSize,
		Workers:                 runtime.NumCPU(),
	}
}

// OptionsFromConfig builds Options from reader configuration
func OptionsFromConfig(cfg config.ReaderConfig) (Options, error) {
	behavior, err := ParseUnexpectedFieldBehavior(cfg.UnexpectedFieldBehavior)
	if err != nil {
		return Options{}, err
	}
	return Options{
		UnexpectedFieldBehavior: behavior,
		BlockSize:               cfg.BlockSize,
		Workers:                 cfg.GetWorkers(),
	}, nil
}

func (o Options) withDefaults() Options {
	if o.BlockSize <= 0 {
		o.BlockSize = config.DefaultBlockSize
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Allocator == nil {
		o.Allocator = memory.NewGoAllocator()
	}
	return o
}
