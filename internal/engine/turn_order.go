package engine

// PenaltyTarget picks who receives garbage from sender: the next player after
// sender in join order that is still alive, wrapping once around the room.
func (r *Room) PenaltyTarget(sender string) (string, bool) {
	n := len(r.Order)
	start := -1
	for i, id := range r.Order {
		if id == sender {
			start = i
			break
		}
	}
	if start < 0 {
		return "", false
	}
	for step := 1; step < n; step++ {
		id := r.Order[(start+step)%n]
		if !r.Players[id].GameOver {
			return id, true
		}
	}
	return "", false
}
