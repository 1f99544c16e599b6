package davis

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CompassDirection converts a console wind direction in degrees (1-360) to the
// nearest of the 16 compass points. The console reports 0 when it has no
// wind data, which yields "".
func CompassDirection(degrees int) string {
	if degrees <= 0 || degrees > 360 {
		return ""
	}
	// 22.5 degrees per point, rounded to the nearest point
	return compassPoints[(degrees*10+112)/225%16]
}
