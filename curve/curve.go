// Package curve evaluates the animation curves used by extended
// transforms: a closed Catmull-Rom spline through the control points and
// the frame that keeps an object aligned with its direction of travel.
package curve

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Param maps an elapsed time onto the loop parameter in [0, 1) for an
// animation that repeats every period seconds. Negative times wrap the
// same way as positive ones.
func Param(elapsed, period float32) float32 {
	if period <= 0 {
		return 0
	}
	t := math32.Mod(elapsed, period)
	if t < 0 {
		t += period
	}
	return t / period
}

// Angle returns the rotation, in degrees, reached after elapsed seconds by
// an object spinning once every period seconds.
func Angle(elapsed, period float32) float32 {
	return 360 * Param(elapsed, period)
}

// Spline is a closed Catmull-Rom spline. The curve passes through every
// control point and wraps from the last point back to the first.
type Spline struct {
	Points []mgl32.Vec3
}

// At evaluates the spline at global parameter gt in [0, 1), returning the
// position and the (unnormalized) tangent. Each of the n segments covers
// 1/n of the parameter range.
func (s *Spline) At(gt float32) (pos, deriv mgl32.Vec3) {
	n := len(s.Points)
	if n == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}

	t := gt * float32(n)
	idx := int(math32.Floor(t))
	t -= float32(idx)
	idx = ((idx % n) + n) % n

	p0 := s.Points[(idx+n-1)%n]
	p1 := s.Points[idx]
	p2 := s.Points[(idx+1)%n]
	p3 := s.Points[(idx+2)%n]

	return segment(p0, p1, p2, p3, t)
}

// segment evaluates one Catmull-Rom segment between p1 and p2 with
// tension 0.5.
func segment(p0, p1, p2, p3 mgl32.Vec3, t float32) (pos, deriv mgl32.Vec3) {
	// Power basis coefficients: pos = 0.5 * (a + b t + c t^2 + d t^3).
	a := p1.Mul(2)
	b := p2.Sub(p0)
	c := p0.Mul(2).Sub(p1.Mul(5)).Add(p2.Mul(4)).Sub(p3)
	d := p1.Mul(3).Sub(p0).Sub(p2.Mul(3)).Add(p3)

	t2 := t * t
	t3 := t2 * t
	pos = a.Add(b.Mul(t)).Add(c.Mul(t2)).Add(d.Mul(t3)).Mul(0.5)
	deriv = b.Add(c.Mul(2 * t)).Add(d.Mul(3 * t2)).Mul(0.5)
	return pos, deriv
}

// Aligner orients an object along a curve tangent. It carries the up
// vector of the previous frame so the object does not flip as the tangent
// turns; use one Aligner per curve occurrence.
type Aligner struct {
	up mgl32.Vec3
}

// NewAligner returns an aligner starting with +Y as its up vector.
func NewAligner() *Aligner {
	return &Aligner{up: mgl32.Vec3{0, 1, 0}}
}

const degenerate = 1e-6

// Orient returns a rotation whose X axis follows deriv. It reports false,
// and leaves its state untouched, when deriv is zero or parallel to the
// previous up vector.
func (a *Aligner) Orient(deriv mgl32.Vec3) (mgl32.Mat4, bool) {
	if deriv.Len() < degenerate {
		return mgl32.Ident4(), false
	}
	x := deriv.Normalize()
	z := x.Cross(a.up)
	if z.Len() < degenerate {
		return mgl32.Ident4(), false
	}
	z = z.Normalize()
	y := z.Cross(x).Normalize()
	a.up = y

	return mgl32.Mat4{
		x[0], x[1], x[2], 0,
		y[0], y[1], y[2], 0,
		z[0], z[1], z[2], 0,
		0, 0, 0, 1,
	}, true
}

// Up returns the current up vector.
func (a *Aligner) Up() mgl32.Vec3 { return a.up }
