package forecast

// Forecast is the day-level weather outlook for a location as reported by the
// provider. Values are immutable once built; only the Client constructs them.
type Forecast struct {
	// Code is the provider's numeric condition code for the day.
	Code int `json:"code"`
	// Description is the provider's human-readable condition text.
	Description string `json:"description"`
	// Location echoes the query string the forecast was requested for.
	Location string `json:"location"`
}
