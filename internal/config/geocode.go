package config

import "time"

// GeocodeConfig configures the outbound geocoding lookup.  The provider is a
// hard dependency of case creation and update; the timeout bounds the only
// network wait in the request path.
type GeocodeConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

func LoadGeocodeConfig() GeocodeConfig {
	return GeocodeConfig{
		BaseURL:   envStr("GEOCODER_URL", "https://nominatim.openstreetmap.org/search"),
		UserAgent: envStr("GEOCODER_USER_AGENT", "DiseaseTracker/1.0"),
		Timeout:   envDur("GEOCODER_TIMEOUT", 10*time.Second),
	}
}
