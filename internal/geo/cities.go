package geo

// defaultCities is the static coordinate table the generator draws from when
// no override is configured.
var defaultCities = Table{
	"Chicago, IL":   {Lat: 41.8781, Lon: -87.6298},
	"Memphis, TN":   {Lat: 35.1495, Lon: -90.0490},
	"Nashville, TN": {Lat: 36.1627, Lon: -86.7816},
	"Dallas, TX":    {Lat: 32.7767, Lon: -96.7970},
	"Atlanta, GA":   {Lat: 33.7490, Lon: -84.3880},
	"Orlando, FL":   {Lat: 28.5383, Lon: -81.3792},
	"St. Louis, MO": {Lat: 38.6270, Lon: -90.1994},
	"Houston, TX":   {Lat: 29.7604, Lon: -95.3698},
	"Suffolk, VA":   {Lat: 36.7282, Lon: -76.5836},
	"Charlotte, NC": {Lat: 35.2271, Lon: -80.8431},
}
