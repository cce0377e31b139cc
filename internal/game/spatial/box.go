package spatial

import "math"

// Box is an axis-aligned bounding box.
type Box struct {
	Min Vec3 `json:"min" msgpack:"min"`
	Max Vec3 `json:"max" msgpack:"max"`
}

// BoxAround builds a box from its center and half-extent.
func BoxAround(center, half Vec3) Box {
	return Box{Min: center.Sub(half), Max: center.Add(half)}
}

// Center returns the midpoint of the box.
func (b Box) Center() Vec3 { return b.Min.Add(b.Max).Scale(0.5) }

// Extent returns the half-size of the box on each axis.
func (b Box) Extent() Vec3 { return b.Max.Sub(b.Min).Scale(0.5) }

// Expand grows the box by r on every side.
func (b Box) Expand(r float64) Box {
	d := Vec3{r, r, r}
	return Box{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

// ContainsStrict reports whether p lies strictly inside the box on all three axes.
func (b Box) ContainsStrict(p Vec3) bool {
	c, e := b.Center(), b.Extent()
	d := p.Sub(c).Abs()
	return d.X < e.X && d.Y < e.Y && d.Z < e.Z
}

// RayHit is the entry point of a ray into a box.
type RayHit struct {
	Distance float64
	Point    Vec3
	Normal   Vec3
}

// IntersectRay runs the slab test for a ray starting at origin along the unit
// direction dir, limited to maxDist. A ray that starts inside the box hits at
// distance 0 with the normal facing back along the ray.
func (b Box) IntersectRay(origin, dir Vec3, maxDist float64) (RayHit, bool) {
	tMin, tMax := 0.0, maxDist
	var normal Vec3
	entered := false

	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}

	for axis := 0; axis < 3; axis++ {
		if math.Abs(d[axis]) < 1e-12 {
			if o[axis] < lo[axis] || o[axis] > hi[axis] {
				return RayHit{}, false
			}
			continue
		}
		inv := 1 / d[axis]
		t1 := (lo[axis] - o[axis]) * inv
		t2 := (hi[axis] - o[axis]) * inv
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1.0
		}
		if t1 > tMin {
			tMin = t1
			normal = Vec3{}
			switch axis {
			case 0:
				normal.X = sign
			case 1:
				normal.Y = sign
			case 2:
				normal.Z = sign
			}
			entered = true
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return RayHit{}, false
		}
	}

	if !entered {
		normal = dir.Neg()
	}
	return RayHit{
		Distance: tMin,
		Point:    origin.Add(dir.Scale(tMin)),
		Normal:   normal,
	}, true
}
