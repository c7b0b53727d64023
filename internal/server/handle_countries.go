package server

import (
	"net/http"

	"github.com/playperu/geoparty/internal/geodata"
)

// CountriesResponse maps country codes to their scoring normalizer in km.
type CountriesResponse map[string]float64

func handleCountries(extents *geodata.Extents) http.HandlerFunc {
	countries := CountriesResponse(extents.Countries())
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, countries)
	}
}
