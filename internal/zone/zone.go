// Zone definitions and point-in-polygon containment.
package zone

import "indoortrack/internal/position"

// DefaultColor is assigned to zones created without an explicit color.
const DefaultColor = "#3498db"

// Zone is a named polygonal region of the tracking area.
type Zone struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Coordinates []position.Point `json:"coordinates"`
	Color       string           `json:"color"`
	Enabled     bool             `json:"enabled"`
	OccupiedBy  []string         `json:"occupied_by"`
}

// Contains reports whether (x, y) lies inside the zone polygon, using ray
// casting over the ordered vertex list with wraparound. Polygons with fewer
// than three vertices contain nothing. Horizontal edges never toggle the
// crossing parity: a point exactly on a horizontal boundary segment is
// classified by the neighboring edges.
func (z *Zone) Contains(x, y float64) bool {
	n := len(z.Coordinates)
	if n < 3 {
		return false
	}

	inside := false
	p1 := z.Coordinates[0]
	for i := 1; i <= n; i++ {
		p2 := z.Coordinates[i%n]
		if p1.Y != p2.Y && y > min(p1.Y, p2.Y) && y <= max(p1.Y, p2.Y) && x <= max(p1.X, p2.X) {
			xInters := (y-p1.Y)*(p2.X-p1.X)/(p2.Y-p1.Y) + p1.X
			if p1.X == p2.X || x <= xInters {
				inside = !inside
			}
		}
		p1 = p2
	}
	return inside
}

func (z *Zone) clone() *Zone {
	cp := *z
	cp.Coordinates = append([]position.Point(nil), z.Coordinates...)
	cp.OccupiedBy = append([]string(nil), z.OccupiedBy...)
	return &cp
}
