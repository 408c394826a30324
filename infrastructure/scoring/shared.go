// Package scoring provides the deterministic stages that follow signal
// extraction: the per-answer score combiner, the per-candidate session
// aggregator, and the cross-candidate ranking engine.
package scoring

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Common errors returned by the scoring stages.
var (
	// ErrWeightsNotNormalized is returned when the combiner weights do not
	// sum to 1.0 within tolerance.
	ErrWeightsNotNormalized = errors.New("signal weights must sum to 1.0")

	// ErrThresholdOrder is returned when the weakness threshold is not
	// below the strength threshold.
	ErrThresholdOrder = errors.New("weakness threshold must be below strength threshold")
)

// weightTolerance is the allowed deviation when checking that weights sum
// to 1.0, and the rounding tolerance for breakdown-sum invariants.
const weightTolerance = 1e-6

// Package-level validator for configuration structs.
var validate = validator.New()
