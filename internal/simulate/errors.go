package simulate

import (
	"errors"
	"fmt"

	"github.com/sells-group/cfsim/internal/model"
)

// DomainKind classifies an arithmetic domain violation.
type DomainKind string

const (
	KindZeroDenominator DomainKind = "zero_denominator"
	KindZeroWeight      DomainKind = "zero_weight"
	KindZeroBaseline    DomainKind = "zero_baseline"
	KindInvalidValue    DomainKind = "invalid_value"
)

// Sentinels matched by DomainError.Is.
var (
	ErrZeroDenominator = errors.New("simulate: zero denominator")
	ErrZeroWeight      = errors.New("simulate: non-positive aggregation weight")
	ErrZeroBaseline    = errors.New("simulate: zero baseline in relative deviation")
	ErrInvalidValue    = errors.New("simulate: non-finite or negative value")
)

// DomainError reports a row or group whose arithmetic is undefined.
// Row-level errors carry Key; group-level errors carry Year.
type DomainError struct {
	Kind     DomainKind
	Variable string
	Key      *model.Key
	Year     int
	Value    float64
}

func (e *DomainError) Error() string {
	where := fmt.Sprintf("year %d", e.Year)
	if e.Key != nil {
		where = "row " + e.Key.String()
	}
	if e.Variable != "" {
		where = e.Variable + " " + where
	}
	return fmt.Sprintf("%s: %s (value %g)", e.sentinel().Error(), where, e.Value)
}

// Is lets errors.Is match the sentinel for this error's kind.
func (e *DomainError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *DomainError) sentinel() error {
	switch e.Kind {
	case KindZeroDenominator:
		return ErrZeroDenominator
	case KindZeroWeight:
		return ErrZeroWeight
	case KindInvalidValue:
		return ErrInvalidValue
	default:
		return ErrZeroBaseline
	}
}

// AsDomainError extracts a DomainError from err's chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
