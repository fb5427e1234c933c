package position

import (
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

const (
	solverMaxIterations = 100
	solverStepTolerance = 1e-9

	// residualScaleMeters maps mean absolute residual to confidence:
	// five meters of average error drives confidence to zero.
	residualScaleMeters = 5.0
)

// rangedReading is a sensor reading with its distance resolved, ready for the
// solver. Distances derived from RSSI are filled into a working copy so the
// caller-owned readings stay untouched.
type rangedReading struct {
	x, y       float64
	distance   float64
	confidence float64
}

// resolveRanges returns the readings that carry a usable distance, deriving
// it from RSSI where absent.
func (e *Engine) resolveRanges(readings []SensorReading) []rangedReading {
	out := make([]rangedReading, 0, len(readings))
	for _, r := range readings {
		var d float64
		switch {
		case r.Distance != nil:
			d = *r.Distance
		case r.RSSI != nil:
			d = e.cal.RSSIToDistance(*r.RSSI)
		default:
			continue
		}
		out = append(out, rangedReading{
			x:          r.Location.X,
			y:          r.Location.Y,
			distance:   d,
			confidence: r.Confidence,
		})
	}
	return out
}

// Trilaterate solves for the most likely position from three or more ranged
// readings via damped least squares. Returns nil when fewer than three
// readings carry a resolvable distance or the minimizer fails to converge.
func (e *Engine) Trilaterate(readings []SensorReading) *Position {
	ranged := e.resolveRanges(readings)
	if len(ranged) < 3 {
		return nil
	}

	// Initial guess: centroid of the contributing sensors.
	var x, y float64
	for _, r := range ranged {
		x += r.x
		y += r.y
	}
	x /= float64(len(ranged))
	y /= float64(len(ranged))

	n := len(ranged)
	residual := mat.NewVecDense(n, nil)
	jacobian := mat.NewDense(n, 2, nil)
	evalResiduals(ranged, x, y, residual)
	cost := blas64.Nrm2(residual.RawVector())

	lambda := 1e-3
	converged := false
	for iter := 0; iter < solverMaxIterations; iter++ {
		evalJacobian(ranged, x, y, jacobian)

		// Levenberg-Marquardt step: (J'J + lambda*I) d = -J'r.
		var normal mat.Dense
		normal.Mul(jacobian.T(), jacobian)
		normal.Set(0, 0, normal.At(0, 0)+lambda)
		normal.Set(1, 1, normal.At(1, 1)+lambda)

		var grad mat.VecDense
		grad.MulVec(jacobian.T(), residual)
		grad.ScaleVec(-1, &grad)

		var step mat.VecDense
		if err := step.SolveVec(&normal, &grad); err != nil {
			return nil
		}

		nx := x + step.AtVec(0)
		ny := y + step.AtVec(1)
		trial := mat.NewVecDense(n, nil)
		evalResiduals(ranged, nx, ny, trial)
		trialCost := blas64.Nrm2(trial.RawVector())

		if trialCost < cost {
			x, y = nx, ny
			residual.CopyVec(trial)
			cost = trialCost
			lambda *= 0.5
			if blas64.Nrm2(step.RawVector()) < solverStepTolerance {
				converged = true
				break
			}
		} else {
			// Rejected step that is already negligible means the iterate
			// cannot improve further; accept it as converged.
			if blas64.Nrm2(step.RawVector()) < solverStepTolerance {
				converged = true
				break
			}
			lambda *= 10
			if lambda > 1e12 {
				break
			}
		}
	}
	if !converged {
		return nil
	}

	confidence := clamp01(1 - meanAbs(residual)/residualScaleMeters)
	return &Position{
		X:           x,
		Y:           y,
		Confidence:  confidence,
		SensorCount: len(ranged),
		Method:      MethodTrilateration,
	}
}

// evalResiduals fills dst with the confidence-weighted range residuals at
// (x, y).
func evalResiduals(ranged []rangedReading, x, y float64, dst *mat.VecDense) {
	for i, r := range ranged {
		d := math.Hypot(x-r.x, y-r.y)
		dst.SetVec(i, (d-r.distance)*r.confidence)
	}
}

// evalJacobian fills dst with the partial derivatives of each residual with
// respect to x and y.
func evalJacobian(ranged []rangedReading, x, y float64, dst *mat.Dense) {
	for i, r := range ranged {
		d := math.Hypot(x-r.x, y-r.y)
		if d < 1e-12 {
			// Co-located with a sensor: the range derivative is undefined,
			// nudge to keep the system solvable.
			d = 1e-12
		}
		dst.Set(i, 0, r.confidence*(x-r.x)/d)
		dst.Set(i, 1, r.confidence*(y-r.y)/d)
	}
}

func meanAbs(v *mat.VecDense) float64 {
	n := v.Len()
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(v.AtVec(i))
	}
	return sum / float64(n)
}
