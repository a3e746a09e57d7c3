package assets

const (
	EarthTextureURL       = "https://raw.githubusercontent.com/mrdoob/three.js/master/examples/textures/planets/earth_atmos_2048.jpg"
	EarthTextureMirrorURL = "https://threejs.org/examples/textures/planets/earth_atmos_2048.jpg"

	NaturalEarthLandURL = "https://raw.githubusercontent.com/nvkelso/natural-earth-vector/master/geojson/ne_110m_land.geojson"
)

// DefaultTextureURLs are tried in order until one answers.
var DefaultTextureURLs = []string{EarthTextureURL, EarthTextureMirrorURL}
