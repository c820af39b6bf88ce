package components

// sideBreakpoints[i] is the exclusive upper size bound for 3+i sides.
var sideBreakpoints = [...]float64{15, 20, 25, 30, 35, 40, 43, 46, 49}

// MinSides and MaxSides bound the polygon side count.
const (
	MinSides = 3
	MaxSides = MinSides + len(sideBreakpoints)
)

// SidesForSize returns the polygon side count for a body size.
func SidesForSize(size float64) int {
	for i, bound := range sideBreakpoints {
		if size < bound {
			return MinSides + i
		}
	}
	return MaxSides
}
