package ledger

import (
	"context"
	"fmt"
	"strconv"
)

// AddOperation is the sample metered operation: integer addition. It stands
// in for arbitrary billable work and demonstrates the invoke contract.
type AddOperation struct {
	cost int64
}

// NewAddOperation creates an add operation with the given unit cost.
func NewAddOperation(cost int64) *AddOperation {
	return &AddOperation{cost: cost}
}

// Name returns the operation identifier.
func (o *AddOperation) Name() string { return "add" }

// Cost returns the units consumed per call.
func (o *AddOperation) Cost() int64 { return o.cost }

// Execute parses and adds the two integer arguments. Pure: no ledger side
// effects, so validation failures cost nothing.
func (o *AddOperation) Execute(_ context.Context, args map[string]string) (any, error) {
	a, err := parseIntArg(args, "a")
	if err != nil {
		return nil, err
	}
	b, err := parseIntArg(args, "b")
	if err != nil {
		return nil, err
	}

	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return nil, fmt.Errorf("%w: sum overflows int64", ErrInvalidArgs)
	}
	return sum, nil
}

func parseIntArg(args map[string]string, name string) (int64, error) {
	raw, ok := args[name]
	if !ok || raw == "" {
		return 0, fmt.Errorf("%w: missing parameter %q", ErrInvalidArgs, name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parameter %q must be an integer", ErrInvalidArgs, name)
	}
	return v, nil
}
