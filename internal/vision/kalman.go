package vision

import "time"

// kalmanStateDim and kalmanMeasDim are the fixed dimensions of the tracked
// object's state (dx, dy, vx, vy, a, b) and measurement (dx, dy, a, b)
// vectors (SPEC_FULL.md §4.5 / spec.md §4.5). The filter is small enough
// (<=6x6) that a dense fixed-array implementation is preferred over an
// external linear-algebra dependency, per spec.md §9's explicit design note.
const (
	kalmanStateDim = 6
	kalmanMeasDim  = 4
)

// KalmanFilter is the shared temporal filter used by the ball and each goal
// detector to stabilize a tracked object's (dx, dy, vx, vy, a, b) state
// against intermittent measurements.
type KalmanFilter struct {
	x   [kalmanStateDim]float64
	P   [kalmanStateDim * kalmanStateDim]float64
	Q   [kalmanStateDim * kalmanStateDim]float64
	R   [kalmanMeasDim * kalmanMeasDim]float64
	H   [kalmanMeasDim * kalmanStateDim]float64
	has bool // x has been initialised by at least one Update

	lastPredict time.Time
	hasLast     bool
}

// NewKalmanFilter builds a filter with the process/measurement noise values
// fixed by SPEC_FULL.md §4.5: Q has 1e-3 on the (dx, b) diagonal entries and
// 1e-2 on (dy, vx, vy, a); R is 1e-3*I4. H selects state rows (0, 1, 4, 5).
func NewKalmanFilter() *KalmanFilter {
	k := &KalmanFilter{}

	// H: measurement = [dx, dy, a, b] <- state rows 0, 1, 4, 5
	rows := [kalmanMeasDim]int{0, 1, 4, 5}
	for i, r := range rows {
		k.H[i*kalmanStateDim+r] = 1
	}

	// Q diagonal: dx=1e-3, dy=1e-2, vx=1e-2, vy=1e-2, a=1e-2, b=1e-3
	qDiag := [kalmanStateDim]float64{1e-3, 1e-2, 1e-2, 1e-2, 1e-2, 1e-3}
	for i, v := range qDiag {
		k.Q[i*kalmanStateDim+i] = v
	}

	// R = 1e-3 * I4
	for i := 0; i < kalmanMeasDim; i++ {
		k.R[i*kalmanMeasDim+i] = 1e-3
	}

	return k
}

// HasState reports whether the filter has received at least one
// measurement (so its state is meaningful to predict from).
func (k *KalmanFilter) HasState() bool { return k.has }

// Update applies the measurement update step. z must hold (dx, dy, a, b). On
// the first call the state is initialised as (z0, z1, 0, 0, z2, z3) per
// spec.md §4.5, and P is left at its zero initial value.
func (k *KalmanFilter) Update(z [kalmanMeasDim]float64) {
	if !k.has {
		k.x = [kalmanStateDim]float64{z[0], z[1], 0, 0, z[2], z[3]}
		k.has = true
		return
	}

	// Innovation y = z - H*x
	var Hx [kalmanMeasDim]float64
	for i := 0; i < kalmanMeasDim; i++ {
		var sum float64
		for j := 0; j < kalmanStateDim; j++ {
			sum += k.H[i*kalmanStateDim+j] * k.x[j]
		}
		Hx[i] = sum
	}
	var y [kalmanMeasDim]float64
	for i := range y {
		y[i] = z[i] - Hx[i]
	}

	// S = H*P*H^T + R  (meas x meas)
	var HP [kalmanMeasDim * kalmanStateDim]float64
	for i := 0; i < kalmanMeasDim; i++ {
		for j := 0; j < kalmanStateDim; j++ {
			var sum float64
			for m := 0; m < kalmanStateDim; m++ {
				sum += k.H[i*kalmanStateDim+m] * k.P[m*kalmanStateDim+j]
			}
			HP[i*kalmanStateDim+j] = sum
		}
	}
	var S [kalmanMeasDim * kalmanMeasDim]float64
	for i := 0; i < kalmanMeasDim; i++ {
		for j := 0; j < kalmanMeasDim; j++ {
			var sum float64
			for m := 0; m < kalmanStateDim; m++ {
				sum += HP[i*kalmanStateDim+m] * k.H[j*kalmanStateDim+m]
			}
			S[i*kalmanMeasDim+j] = sum + k.R[i*kalmanMeasDim+j]
		}
	}

	Sinv, ok := invert4(S)
	if !ok {
		return // singular innovation covariance, skip this update
	}

	// K = P*H^T*S^-1  (state x meas)
	var PHt [kalmanStateDim * kalmanMeasDim]float64
	for i := 0; i < kalmanStateDim; i++ {
		for j := 0; j < kalmanMeasDim; j++ {
			var sum float64
			for m := 0; m < kalmanStateDim; m++ {
				sum += k.P[i*kalmanStateDim+m] * k.H[j*kalmanStateDim+m]
			}
			PHt[i*kalmanMeasDim+j] = sum
		}
	}
	var K [kalmanStateDim * kalmanMeasDim]float64
	for i := 0; i < kalmanStateDim; i++ {
		for j := 0; j < kalmanMeasDim; j++ {
			var sum float64
			for m := 0; m < kalmanMeasDim; m++ {
				sum += PHt[i*kalmanMeasDim+m] * Sinv[m*kalmanMeasDim+j]
			}
			K[i*kalmanMeasDim+j] = sum
		}
	}

	// x = x + K*y
	for i := 0; i < kalmanStateDim; i++ {
		var sum float64
		for j := 0; j < kalmanMeasDim; j++ {
			sum += K[i*kalmanMeasDim+j] * y[j]
		}
		k.x[i] += sum
	}

	// Joseph form: P = (I-KH) P (I-KH)^T + K R K^T, to preserve symmetry/PSD.
	var KH [kalmanStateDim * kalmanStateDim]float64
	for i := 0; i < kalmanStateDim; i++ {
		for j := 0; j < kalmanStateDim; j++ {
			var sum float64
			for m := 0; m < kalmanMeasDim; m++ {
				sum += K[i*kalmanMeasDim+m] * k.H[m*kalmanStateDim+j]
			}
			KH[i*kalmanStateDim+j] = sum
		}
	}
	var IminusKH [kalmanStateDim * kalmanStateDim]float64
	for i := 0; i < kalmanStateDim; i++ {
		for j := 0; j < kalmanStateDim; j++ {
			id := 0.0
			if i == j {
				id = 1
			}
			IminusKH[i*kalmanStateDim+j] = id - KH[i*kalmanStateDim+j]
		}
	}

	var term1 [kalmanStateDim * kalmanStateDim]float64
	{
		var tmp [kalmanStateDim * kalmanStateDim]float64
		for i := 0; i < kalmanStateDim; i++ {
			for j := 0; j < kalmanStateDim; j++ {
				var sum float64
				for m := 0; m < kalmanStateDim; m++ {
					sum += IminusKH[i*kalmanStateDim+m] * k.P[m*kalmanStateDim+j]
				}
				tmp[i*kalmanStateDim+j] = sum
			}
		}
		for i := 0; i < kalmanStateDim; i++ {
			for j := 0; j < kalmanStateDim; j++ {
				var sum float64
				for m := 0; m < kalmanStateDim; m++ {
					sum += tmp[i*kalmanStateDim+m] * IminusKH[j*kalmanStateDim+m]
				}
				term1[i*kalmanStateDim+j] = sum
			}
		}
	}

	var term2 [kalmanStateDim * kalmanStateDim]float64
	{
		var KR [kalmanStateDim * kalmanMeasDim]float64
		for i := 0; i < kalmanStateDim; i++ {
			for j := 0; j < kalmanMeasDim; j++ {
				var sum float64
				for m := 0; m < kalmanMeasDim; m++ {
					sum += K[i*kalmanMeasDim+m] * k.R[m*kalmanMeasDim+j]
				}
				KR[i*kalmanMeasDim+j] = sum
			}
		}
		for i := 0; i < kalmanStateDim; i++ {
			for j := 0; j < kalmanStateDim; j++ {
				var sum float64
				for m := 0; m < kalmanMeasDim; m++ {
					sum += KR[i*kalmanMeasDim+m] * K[j*kalmanMeasDim+m]
				}
				term2[i*kalmanStateDim+j] = sum
			}
		}
	}

	for i := range k.P {
		k.P[i] = term1[i] + term2[i]
	}
}

// Predict applies the time-update step. F is rebuilt each call with
// F[0][2]=F[1][3]=dt, where dt is the wall-clock delta since the previous
// Predict call. The very first call (no prior timestamp) returns ok=false
// without touching the state, matching spec.md §4.5 / §8's "Kalman
// first-predict returns no prediction" invariant.
func (k *KalmanFilter) Predict() (state [kalmanStateDim]float64, ok bool) {
	now := time.Now()
	if !k.hasLast {
		k.lastPredict = now
		k.hasLast = true
		return state, false
	}
	dt := now.Sub(k.lastPredict).Seconds()
	k.lastPredict = now

	if !k.has {
		return state, false
	}

	return k.predictWithDt(dt), true
}

// predictWithDt performs the predict step for an explicit dt, used directly
// by tests that need deterministic timing.
func (k *KalmanFilter) predictWithDt(dt float64) [kalmanStateDim]float64 {
	var F [kalmanStateDim * kalmanStateDim]float64
	for i := 0; i < kalmanStateDim; i++ {
		F[i*kalmanStateDim+i] = 1
	}
	F[0*kalmanStateDim+2] = dt
	F[1*kalmanStateDim+3] = dt

	var x [kalmanStateDim]float64
	for i := 0; i < kalmanStateDim; i++ {
		var sum float64
		for j := 0; j < kalmanStateDim; j++ {
			sum += F[i*kalmanStateDim+j] * k.x[j]
		}
		x[i] = sum
	}
	k.x = x

	var FP [kalmanStateDim * kalmanStateDim]float64
	for i := 0; i < kalmanStateDim; i++ {
		for j := 0; j < kalmanStateDim; j++ {
			var sum float64
			for m := 0; m < kalmanStateDim; m++ {
				sum += F[i*kalmanStateDim+m] * k.P[m*kalmanStateDim+j]
			}
			FP[i*kalmanStateDim+j] = sum
		}
	}
	var FPFt [kalmanStateDim * kalmanStateDim]float64
	for i := 0; i < kalmanStateDim; i++ {
		for j := 0; j < kalmanStateDim; j++ {
			var sum float64
			for m := 0; m < kalmanStateDim; m++ {
				sum += FP[i*kalmanStateDim+m] * F[j*kalmanStateDim+m]
			}
			FPFt[i*kalmanStateDim+j] = sum
		}
	}
	for i := range k.P {
		k.P[i] = FPFt[i] + k.Q[i]
	}

	return k.x
}

// invert4 inverts a 4x4 row-major matrix via Gauss-Jordan elimination,
// reporting ok=false if it is (near-)singular.
func invert4(m [16]float64) (inv [16]float64, ok bool) {
	const n = 4
	var a [n][2 * n]float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a[i][j] = m[i*n+j]
		}
		a[i][n+i] = 1
	}

	for col := 0; col < n; col++ {
		pivot := col
		best := a[col][col]
		if best < 0 {
			best = -best
		}
		for r := col + 1; r < n; r++ {
			v := a[r][col]
			if v < 0 {
				v = -v
			}
			if v > best {
				best = v
				pivot = r
			}
		}
		if best < 1e-12 {
			return inv, false
		}
		a[col], a[pivot] = a[pivot], a[col]

		pv := a[col][col]
		for j := 0; j < 2*n; j++ {
			a[col][j] /= pv
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			f := a[r][col]
			if f == 0 {
				continue
			}
			for j := 0; j < 2*n; j++ {
				a[r][j] -= f * a[col][j]
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			inv[i*n+j] = a[i][n+j]
		}
	}
	return inv, true
}
