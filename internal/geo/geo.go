package geo

import "math"

const earthRadiusMeters = 6371000

// Point is a single geotagged ping, optionally labeled with the user it
// belongs to for map popups.
type Point struct {
	UserID    string  `json:"userId,omitempty"`
	Username  string  `json:"username,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Distance returns the great-circle distance between two points in meters,
// using the Haversine formula on a spherical Earth.
func Distance(a, b Point) float64 {
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Latitude*math.Pi/180)*
			math.Cos(b.Latitude*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

// Cluster groups points so that consolidated map markers can be rendered for
// users standing together. It is a greedy single pass: each unvisited point
// seeds a new group, and every later unvisited point within radiusMeters of
// that seed joins it. Membership is decided against the seed only, never
// against points added afterwards, so two members of a group may themselves
// be farther apart than the radius. That asymmetry is intentional: making
// the comparison transitive changes which markers get merged on the map.
// Groups come out in seed order, members in input order. Stateless per call.
func Cluster(points []Point, radiusMeters float64) [][]Point {
	grouped := make([][]Point, 0, len(points))
	visited := make([]bool, len(points))

	for i := range points {
		if visited[i] {
			continue
		}

		group := []Point{points[i]}
		visited[i] = true

		for j := i + 1; j < len(points); j++ {
			if visited[j] {
				continue
			}
			if Distance(points[i], points[j]) <= radiusMeters {
				group = append(group, points[j])
				visited[j] = true
			}
		}

		grouped = append(grouped, group)
	}

	return grouped
}
