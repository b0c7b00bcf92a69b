package wu

// cut describes one candidate split plane.
type cut struct {
	axis  Axis
	at    uint8 // last cell of the lower half
	score float64
}

// Split divides c along the plane that maximizes
//
//	‖m₁‖²/n₁ + ‖m₂‖²/n₂
//
// over both halves, which for a fixed cube is the same as minimizing the
// summed variance of the halves. Axes are searched red, green, blue and
// cuts in increasing order; on equal scores the first one found wins.
//
// ok is false when no plane leaves pixels on both sides, e.g. every pixel
// of c falls in one grid cell.
func (h *Histogram) Split(c Cube) (lower, upper Cube, ok bool) {
	whole := h.Volume(c)
	if whole.Count < 2 {
		return Cube{}, Cube{}, false
	}

	var best cut
	found := false
	for _, a := range axes {
		var base Moments
		if !c.Lo[a].Open {
			base = h.slab(c, a, c.Lo[a].At)
		}
		for i := c.Lo[a].first(); i < int(c.Hi[a]); i++ {
			half := h.slab(c, a, uint8(i)).Sub(base)
			if half.Count == 0 {
				continue
			}
			// The count only grows with i; every later cut leaves the
			// upper half empty too.
			if half.Count == whole.Count {
				break
			}
			other := whole.Sub(half)
			score := half.separation() + other.separation()
			if !found || score > best.score {
				best = cut{axis: a, at: uint8(i), score: score}
				found = true
			}
		}
	}
	if !found {
		return Cube{}, Cube{}, false
	}

	lower, upper = c, c
	lower.Hi[best.axis] = best.at
	upper.Lo[best.axis] = Bound{At: best.at}
	return lower, upper, true
}
