package face

// Expressions maps canonical expression names to facial action unit
// intensities (0.0-1.0). "neutral" is the empty set, which resets the face.
var Expressions = map[string]map[string]float64{
	"happy": {
		"AU6l": 0.8, "AU6r": 0.8,
		"AU12l": 0.6, "AU12r": 0.6,
	},
	"sad": {
		"AU1l": 0.5, "AU1r": 0.5,
		"AU4l": 0.4, "AU4r": 0.4,
		"AU15l": 0.3, "AU15r": 0.3,
	},
	"surprised": {
		"AU1l": 0.8, "AU1r": 0.8,
		"AU2l": 0.6, "AU2r": 0.6,
		"AU5l": 0.7, "AU5r": 0.7,
	},
	"angry": {
		"AU4l": 0.8, "AU4r": 0.8,
		"AU7l": 0.6, "AU7r": 0.6,
		"AU23l": 0.4, "AU23r": 0.4,
	},
	"neutral": {},
}

// Lookup returns the action units for a named expression.
func Lookup(name string) (map[string]float64, bool) {
	aus, ok := Expressions[name]
	return aus, ok
}
