package spatial

import "math"

// Vec3 is a world-space position or direction. Z is up.
type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// V is shorthand for constructing a Vec3.
func V(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s float64) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }
func (a Vec3) Dot(b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func (a Vec3) Mul(b Vec3) Vec3 { return Vec3{a.X * b.X, a.Y * b.Y, a.Z * b.Z} }
func (a Vec3) Len() float64 { return math.Sqrt(a.Dot(a)) }
func (a Vec3) Abs() Vec3 { return Vec3{math.Abs(a.X), math.Abs(a.Y), math.Abs(a.Z)} }
func (a Vec3) IsZero() bool { return a.X == 0 && a.Y == 0 && a.Z == 0 }
func (a Vec3) Neg() Vec3 { return Vec3{-a.X, -a.Y, -a.Z} }
func (a Vec3) DistTo(b Vec3) float64 { return b.Sub(a).Len() }
func (a Vec3) Max(b Vec3) Vec3 { return Vec3{math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z)} }
func (a Vec3) MaxScalar(s float64) Vec3 { return a.Max(Vec3{s, s, s}) }

// SafeNormal returns the unit vector in the direction of a, or zero if a is
// too short to normalize.
func (a Vec3) SafeNormal() Vec3 {
	l := a.Len()
	if l < 1e-8 {
		return Vec3{}
	}
	return a.Scale(1 / l)
}

// FromYawPitch builds a unit direction from yaw (around Z) and pitch, both in radians.
func FromYawPitch(yaw, pitch float64) Vec3 {
	cp := math.Cos(pitch)
	return Vec3{math.Cos(yaw) * cp, math.Sin(yaw) * cp, math.Sin(pitch)}
}
