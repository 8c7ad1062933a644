package mppi

import "errors"

var (
	// ErrCovariance indicates a noise covariance that is not square,
	// symmetric and positive-definite.
	ErrCovariance = errors.New("mppi: noise covariance must be square, symmetric and positive-definite")

	// ErrBounds indicates action bounds that do not satisfy
	// u_min < 0 < u_max component-wise.
	ErrBounds = errors.New("mppi: action bounds must satisfy u_min < 0 < u_max")

	// ErrDimension indicates inconsistent dimensions in the configuration.
	ErrDimension = errors.New("mppi: configuration dimension mismatch")

	// ErrCostDistribution indicates that no valid importance weights can be
	// formed from the sampled costs (the softmin normalizer is zero or
	// non-finite).
	ErrCostDistribution = errors.New("mppi: degenerate cost distribution, cannot form weights")
)
