package orientation

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var level = [3]float64{0, 0, 1000}

func TestInvSqrt(t *testing.T) {
	for _, x := range []float64{0, -1, -1e-30, math.Inf(-1)} {
		assert.Equal(t, 0.0, InvSqrt(x), "x=%g", x)
	}
	for _, x := range []float64{1e-6, 0.25, 1, 2, 1000, 1e9} {
		want := 1 / math.Sqrt(x)
		assert.InEpsilon(t, want, InvSqrt(x), 1e-3, "x=%g", x)
	}
}

func TestAnglesFrom(t *testing.T) {
	s := math.Sqrt2 / 2
	cases := []struct {
		name string
		q    Quaternion
		want Angles
	}{
		{"identity", Identity, Angles{}},
		{"z +90", Quaternion{Q0: s, Q3: s}, Angles{Yaw: -90}},
		{"x +90", Quaternion{Q0: s, Q1: s}, Angles{Roll: 90}},
		{"y +30", Quaternion{Q0: math.Cos(math.Pi / 12), Q2: math.Sin(math.Pi / 12)}, Angles{Pitch: -30}},
	}
	for _, tc := range cases {
		got := AnglesFrom(tc.q)
		assert.InDelta(t, tc.want.Yaw, got.Yaw, 1e-9, tc.name)
		assert.InDelta(t, tc.want.Pitch, got.Pitch, 1e-9, tc.name)
		assert.InDelta(t, tc.want.Roll, got.Roll, 1e-9, tc.name)
	}
}

func TestAnglesFromClampsPitch(t *testing.T) {
	// slightly over-unit quaternion at pitch -90
	s := math.Sqrt2/2 + 1e-9
	got := AnglesFrom(Quaternion{Q0: s, Q2: s})
	assert.False(t, math.IsNaN(got.Pitch))
	assert.InDelta(t, -90, got.Pitch, 1e-3)
}

func TestStepLevelAtRest(t *testing.T) {
	e := NewEstimator()
	for i := 0; i < 200; i++ {
		a := e.Step([3]float64{}, level, [3]float64{})
		require.Equal(t, Angles{}, a)
	}
	assert.Equal(t, Identity, e.Quaternion())
	assert.False(t, e.Corrected())
	assert.Equal(t, [3]float64{}, e.Integral())
}

func TestStepZeroAccelDoesNotProduceNaN(t *testing.T) {
	e := NewEstimator()
	a := e.Step([3]float64{10, -5, 3}, [3]float64{}, [3]float64{})
	assert.False(t, e.Corrected())
	for _, v := range []float64{a.Yaw, a.Pitch, a.Roll} {
		assert.False(t, math.IsNaN(v))
	}
	assert.InDelta(t, 1, e.Quaternion().Norm(), 1e-12)
}

func TestStepSkipsCorrectionWhenAnyErrorComponentIsZero(t *testing.T) {
	e := NewEstimator()
	// From identity, e = (ay, -ax, 0): the z component is exactly zero.
	e.Step([3]float64{}, [3]float64{300, 400, 866}, [3]float64{})
	assert.False(t, e.Corrected())
	assert.Equal(t, Identity, e.Quaternion())
}

func TestStepIntegratesYawRate(t *testing.T) {
	e := NewEstimator()
	const rate = 50.0 // °/s
	const steps = 45
	var a Angles
	for i := 0; i < steps; i++ {
		a = e.Step([3]float64{0, 0, rate}, level, [3]float64{})
	}
	// each step advances by rate * 2 * HalfT; yaw is reported negated
	assert.InDelta(t, -rate*2*HalfT*steps, a.Yaw, 0.05)
	assert.InDelta(t, 0, a.Pitch, 1e-9)
	assert.InDelta(t, 0, a.Roll, 1e-9)
}

func TestStepConvergesToGravity(t *testing.T) {
	e := NewEstimator()
	acc := [3]float64{300, 400, 866}
	n := math.Sqrt(acc[0]*acc[0] + acc[1]*acc[1] + acc[2]*acc[2])

	// nudge off the identity so the cross-product error has no zero term
	e.Step([3]float64{5, 5, 5}, acc, [3]float64{})
	var a Angles
	for i := 0; i < 500; i++ {
		a = e.Step([3]float64{}, acc, [3]float64{})
	}

	assert.InDelta(t, math.Asin(acc[0]/n)*radToDeg, a.Pitch, 0.5)
	assert.InDelta(t, math.Atan2(acc[1], acc[2])*radToDeg, a.Roll, 0.5)
	assert.NotEqual(t, [3]float64{}, e.Integral())
}

func TestQuaternionStaysUnitNorm(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	e := NewEstimator()
	for i := 0; i < 5000; i++ {
		g := [3]float64{rng.Float64()*1000 - 500, rng.Float64()*1000 - 500, rng.Float64()*1000 - 500}
		a := [3]float64{rng.Float64()*8000 - 4000, rng.Float64()*8000 - 4000, rng.Float64()*8000 - 4000}
		if i%50 == 0 {
			a = [3]float64{}
		}
		e.Step(g, a, [3]float64{rng.Float64(), rng.Float64(), rng.Float64()})
		require.InDelta(t, 1, e.Quaternion().Norm(), 1e-6, "step %d", i)
	}
}

func TestReferenceAxesAtIdentity(t *testing.T) {
	e := NewEstimator()
	e.Step([3]float64{}, level, [3]float64{0, 3, 4})
	assert.Equal(t, Vec3{X: 1}, e.North())
	assert.Equal(t, Vec3{Y: 1}, e.West())
	assert.InDelta(t, 0.6, e.Mag().Y, 1e-12)
	assert.InDelta(t, 0.8, e.Mag().Z, 1e-12)
}

func TestResetRestoresStartup(t *testing.T) {
	e := NewEstimator()
	e.SetKp(KpSteady)
	e.Step([3]float64{100, 50, 20}, [3]float64{300, 400, 866}, [3]float64{})
	e.Step([3]float64{0, 0, 0}, [3]float64{300, 400, 866}, [3]float64{})
	e.Reset()
	assert.Equal(t, Identity, e.Quaternion())
	assert.Equal(t, KpStartup, e.Kp())
	assert.Equal(t, [3]float64{}, e.Integral())
}
