package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding names the report's station from its header coordinates.
// When geocoder is nil, the station has no coordinates, or the lookup fails,
// the report is returned unchanged.
func EnrichWithGeocoding(ctx context.Context, report Report, geocoder Geocoder, logger *slog.Logger) Report {
	if geocoder == nil || !report.Station.HasCoords {
		return report
	}

	lat, lon := report.Station.Latitude, report.Station.Longitude
	result, err := geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"report_id", report.ID,
			"lat", lat,
			"lon", lon,
			"error", err,
		)
		return report
	}
	if result.FormattedAddress == "" {
		logger.Debug("no place found for station", "report_id", report.ID, "lat", lat, "lon", lon)
		return report
	}

	report.Station.FormattedAddress = result.FormattedAddress
	report.Station.PlaceName = result.PlaceName
	if result.PlaceName != "" {
		report.Location = result.PlaceName
	}
	return report
}
