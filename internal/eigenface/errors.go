package eigenface

import "errors"

var (
	// ErrDimensionMismatch is returned when an image does not match the
	// configured face dimensions. The caller must crop/resize and retry.
	ErrDimensionMismatch = errors.New("image dimensions do not match configured size")

	// ErrInsufficientData is returned when a training set holds fewer than
	// two images, which is not enough to compute a covariance structure.
	ErrInsufficientData = errors.New("training requires at least 2 images")

	// ErrNoConvergence is returned when the power iteration exhausts its
	// iteration budget without converging, or when the numbers blow up
	// (NaN/Inf) on an ill-conditioned matrix.
	ErrNoConvergence = errors.New("power iteration did not converge")
)
