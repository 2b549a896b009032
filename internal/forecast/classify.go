package forecast

// adverseCodes are the WeatherAPI condition codes (moderate and heavy rain
// variants) judged likely to delay a package delivery. Process-wide constant
// data, not configuration.
var adverseCodes = map[int]struct{}{
	1186: {}, // moderate rain at times
	1189: {}, // moderate rain
	1192: {}, // heavy rain at times
	1195: {}, // heavy rain
}

// IsAdverse reports whether a condition code is delivery-impacting.
func IsAdverse(code int) bool {
	_, ok := adverseCodes[code]
	return ok
}
