package field

// Occupancy tracks which agent, if any, holds each grid cell.
type Occupancy struct {
	w, h     int
	boundary Boundary
	owner    []int32 // agent index + 1; 0 means free
	count    int
}

// NewOccupancy creates an empty occupancy map.
func NewOccupancy(width, height int, boundary Boundary) *Occupancy {
	return &Occupancy{
		w:        width,
		h:        height,
		boundary: boundary,
		owner:    make([]int32, width*height),
	}
}

func (o *Occupancy) index(x, y int) int {
	x, y = o.boundary.Resolve(x, y, o.w, o.h)
	return y*o.w + x
}

// Owner returns the agent holding (x, y).
func (o *Occupancy) Owner(x, y int) (int, bool) {
	v := o.owner[o.index(x, y)]
	return int(v) - 1, v != 0
}

// Occupied reports whether any agent holds (x, y).
func (o *Occupancy) Occupied(x, y int) bool {
	return o.owner[o.index(x, y)] != 0
}

// BlockedFor reports whether (x, y) is held by an agent other than id.
func (o *Occupancy) BlockedFor(x, y, id int) bool {
	v := o.owner[o.index(x, y)]
	return v != 0 && int(v)-1 != id
}

// Claim marks (x, y) as held by id. It fails if another agent holds it.
func (o *Occupancy) Claim(x, y, id int) bool {
	i := o.index(x, y)
	switch v := o.owner[i]; {
	case v == 0:
		o.owner[i] = int32(id + 1)
		o.count++
		return true
	case int(v)-1 == id:
		return true
	default:
		return false
	}
}

// Release frees (x, y) if id holds it.
func (o *Occupancy) Release(x, y, id int) {
	i := o.index(x, y)
	if int(o.owner[i])-1 == id {
		o.owner[i] = 0
		o.count--
	}
}

// Move transfers id from one cell to another. It fails, leaving the map
// unchanged, if the destination is held by a different agent.
func (o *Occupancy) Move(fromX, fromY, toX, toY, id int) bool {
	if o.BlockedFor(toX, toY, id) {
		return false
	}
	o.Release(fromX, fromY, id)
	o.Claim(toX, toY, id)
	return true
}

// Count returns the number of held cells.
func (o *Occupancy) Count() int { return o.count }

// Reset frees every cell.
func (o *Occupancy) Reset() {
	clear(o.owner)
	o.count = 0
}
