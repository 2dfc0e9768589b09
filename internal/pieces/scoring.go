package pieces

// MaxLinePoints is the most a single clear can award (four lines at once).
const MaxLinePoints = 800

// OverCeiling reports whether score is more than lines clears could have
// earned, i.e. score > lines*MaxLinePoints, without multiplying. Both values
// are expected to be non-negative.
func OverCeiling(score, lines int) bool {
	q, r := score/MaxLinePoints, score%MaxLinePoints
	return q > lines || (q == lines && r > 0)
}
