package planner

import (
	"fmt"
	"io"

	kml "github.com/twpayne/go-kml"
)

// EncodeKML writes a preview of the flight path: the route as a LineString and
// one placemark per photo point. Altitudes are relative to ground.
func EncodeKML(w io.Writer, name string, waypoints []Waypoint) error {
	coords := make([]kml.Coordinate, 0, len(waypoints))
	var marks []kml.Element
	for _, wp := range waypoints {
		c := kml.Coordinate{Lon: wp.Coordinates.Lon(), Lat: wp.Coordinates.Lat()}
		if wp.Altitude != nil {
			c.Alt = *wp.Altitude
		}
		coords = append(coords, c)

		if !wp.TakePhoto && wp.Kind != KindTakeOff {
			continue
		}
		marks = append(marks, kml.Placemark(
			kml.Name(fmt.Sprintf("WP %d", wp.Index)),
			kml.Description(fmt.Sprintf("heading %.1f°, gimbal %.0f°, %s",
				wp.Heading, float64(wp.GimbalAngle), wp.Kind)),
			kml.Point(
				kml.AltitudeMode(kml.AltitudeModeRelativeToGround),
				kml.Coordinates(c),
			),
		))
	}

	route := kml.Placemark(
		kml.Name("Flight path"),
		kml.LineString(
			kml.AltitudeMode(kml.AltitudeModeRelativeToGround),
			kml.Tessellate(true),
			kml.Coordinates(coords...),
		),
	)

	doc := kml.KML(kml.Document(
		kml.Name(name),
		route,
		kml.Folder(append([]kml.Element{kml.Name("Waypoints")}, marks...)...),
	))
	return doc.WriteIndent(w, "", "  ")
}
