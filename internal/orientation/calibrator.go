package orientation

const (
	// WindowSize is the number of gyro samples in the variance window.
	WindowSize = 100

	stillVariance = 0.02
	stableCount   = 99
)

// GyroBiasCalibrator estimates the gyroscope zero-rate offset from a
// sliding window of samples. It commits a bias once, the first time the
// window looks stationary, and never un-commits.
type GyroBiasCalibrator struct {
	buf    [3][WindowSize]float64
	sum    [3]float64
	sumSq  [3]float64
	next   int
	filled bool

	counter   int
	bias      [3]float64
	committed bool
}

// NewGyroBiasCalibrator returns a calibrator with an empty window and a
// zero bias.
func NewGyroBiasCalibrator() *GyroBiasCalibrator {
	return &GyroBiasCalibrator{}
}

// push adds g to the window, keeping sum and sumSq equal to the exact
// aggregate of the buffered samples.
func (c *GyroBiasCalibrator) push(g [3]float64) {
	for i := 0; i < 3; i++ {
		if c.filled {
			old := c.buf[i][c.next]
			c.sum[i] -= old
			c.sumSq[i] -= old * old
		}
		c.buf[i][c.next] = g[i]
		c.sum[i] += g[i]
		c.sumSq[i] += g[i] * g[i]
	}
	c.next++
	if c.next >= WindowSize {
		c.next = 0
		c.filled = true
	}
}

// Stats returns the per-axis mean and variance of the window. ok is false
// until the window has filled.
func (c *GyroBiasCalibrator) Stats() (mean, variance [3]float64, ok bool) {
	if !c.filled {
		return mean, variance, false
	}
	n := float64(WindowSize)
	for i := 0; i < 3; i++ {
		mean[i] = c.sum[i] / n
		variance[i] = (c.sumSq[i] - c.sum[i]*c.sum[i]/n) / n
	}
	return mean, variance, true
}

// Update feeds one gyro sample in °/s and reports whether the bias was
// committed by this sample.
//
// The stillness test is (varX < 0.02 || varY < 0.02) && varZ < 0.02, and it
// only counts once at least 99 samples have gone by since start.
func (c *GyroBiasCalibrator) Update(g [3]float64) bool {
	c.push(g)

	if c.committed {
		return false
	}

	mean, v, ok := c.Stats()
	still := ok && (v[0] < stillVariance || v[1] < stillVariance) && v[2] < stillVariance
	if still && c.counter >= stableCount {
		c.bias = mean
		c.committed = true
		c.counter = 0
		return true
	}
	if c.counter < WindowSize {
		c.counter++
	}
	return false
}

// Bias returns the committed bias, or zero if none has been committed.
func (c *GyroBiasCalibrator) Bias() [3]float64 { return c.bias }

// Committed reports whether a bias has been latched.
func (c *GyroBiasCalibrator) Committed() bool { return c.committed }

// Corrected subtracts the current bias from g.
func (c *GyroBiasCalibrator) Corrected(g [3]float64) [3]float64 {
	return [3]float64{g[0] - c.bias[0], g[1] - c.bias[1], g[2] - c.bias[2]}
}
