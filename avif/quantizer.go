/*
NAME
  quantizer.go - maps a 0..100 quality setting onto an AV1 base-quantizer
  index via a piecewise-linear interpolation curve.

DESCRIPTION
  The reference codec adapter contract (spec.md §4.3) takes an integer
  quantizer, not a quality score; this fits a monotonically decreasing
  curve through a handful of empirically reasonable control points and
  interpolates between them rather than hand-rolling the interpolation
  arithmetic, following this repo's practice of reaching for gonum where
  numerical work goes beyond simple arithmetic.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package avif

import "gonum.org/v1/gonum/interp"

// qualityControlPointsX/Y are the quality(0..100) -> quantizer(0..63)
// control points the curve is fit through. Quantizer decreases as quality
// increases; AV1's base_q_idx convention runs 0 (lossless) to 63 (lowest
// quality).
var (
	qualityControlPointsX = []float64{0, 20, 50, 75, 90, 100}
	qualityControlPointsY = []float64{63, 55, 32, 16, 6, 0}
)

// qualityToQuantizer maps quality in [0,100] to a quantizer in [0,63]
// using a piecewise-linear fit through qualityControlPointsX/Y.
func qualityToQuantizer(quality int) (int, error) {
	if quality < 0 {
		quality = 0
	}
	if quality > 100 {
		quality = 100
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(qualityControlPointsX, qualityControlPointsY); err != nil {
		return 0, wrapErr(UnknownError, err, "fit quality curve")
	}
	q := pl.Predict(float64(quality))
	return int(q + 0.5), nil
}
