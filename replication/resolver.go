package replication

// NotFound is returned by FindNearestFree when every slot is taken.
const NotFound = -1

// OccupancyMap tracks which destination slots are taken during one run.
// It is allocated per run and never shared.
type OccupancyMap struct {
	occupied []bool
}

// NewOccupancyMap returns a map over n slots, all free.
func NewOccupancyMap(n int) *OccupancyMap {
	return &OccupancyMap{occupied: make([]bool, n)}
}

func (o *OccupancyMap) Len() int { return len(o.occupied) }

// IsFree is false for out-of-bounds indices.
func (o *OccupancyMap) IsFree(i int) bool {
	return i >= 0 && i < len(o.occupied) && !o.occupied[i]
}

func (o *OccupancyMap) Occupy(i int) {
	o.occupied[i] = true
}

// FindNearestFree searches outward from ideal. At each radius the earlier
// slot is tried before the later one so collisions drift backward and keep
// chronological order. Returns (NotFound, false) when nothing is free.
func (o *OccupancyMap) FindNearestFree(ideal int) (int, bool) {
	n := len(o.occupied)
	if o.IsFree(ideal) {
		return ideal, true
	}
	for r := 1; r <= n; r++ {
		before, after := ideal-r, ideal+r
		if before < 0 && after >= n {
			break
		}
		if o.IsFree(before) {
			return before, true
		}
		if o.IsFree(after) {
			return after, true
		}
	}
	return NotFound, false
}
