package domain

// Bounds is the smallest box enclosing a set of coordinates, used for
// camera fitting on the map.
type Bounds struct {
	NorthEast Coordinate
	SouthWest Coordinate
}

// RouteInfo is a resolved driving route between two points.
// Points is never empty for a successfully resolved route; a failed
// resolution yields no RouteInfo at all rather than a synthetic one.
type RouteInfo struct {
	Points       []Coordinate
	DistanceText string
	DurationText string
	DistanceM    int
	DurationS    int
	Bounds       Bounds
}
