package geocoder

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/jobreel/job-board/internal/job"
)

// Geocoder resolves a free-form address into coordinates and address
// components through the MapQuest open geocoding API.
type Geocoder struct {
	apiKey string
	uri    string
}

func NewGeocoder(apiKey, URI string) Geocoder {
	return Geocoder{apiKey: apiKey, uri: URI}
}

type geocodeResponse struct {
	Results []struct {
		Locations []struct {
			Street     string `json:"street"`
			City       string `json:"adminArea5"`
			State      string `json:"adminArea3"`
			Country    string `json:"adminArea1"`
			PostalCode string `json:"postalCode"`
			LatLng     struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"latLng"`
		} `json:"locations"`
	} `json:"results"`
}

func (g Geocoder) Geocode(address string) (job.Geo, error) {
	res, err := http.Get(fmt.Sprintf("%s?key=%s&location=%s", g.uri, g.apiKey, url.QueryEscape(address)))
	if err != nil {
		return job.Geo{}, errors.Wrapf(err, "unable to call geocoding api for address %#v", address)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return job.Geo{}, fmt.Errorf("got status code %d from geocoding api for address %#v", res.StatusCode, address)
	}
	var payload geocodeResponse
	err = json.NewDecoder(res.Body).Decode(&payload)
	if err != nil {
		return job.Geo{}, errors.Wrapf(err, "unable to parse geocoding api response for address %#v", address)
	}
	if len(payload.Results) == 0 || len(payload.Results[0].Locations) == 0 {
		return job.Geo{}, fmt.Errorf("no geocoding result for address %#v", address)
	}
	loc := payload.Results[0].Locations[0]
	return job.Geo{
		Longitude:        loc.LatLng.Lng,
		Latitude:         loc.LatLng.Lat,
		FormattedAddress: formattedAddress(loc.Street, loc.City, loc.State, loc.PostalCode, loc.Country),
		City:             loc.City,
		State:            loc.State,
		Zipcode:          loc.PostalCode,
		Country:          loc.Country,
	}, nil
}

// GeocodeZip resolves a bare postal code, used for radius search.
func (g Geocoder) GeocodeZip(zipcode string) (job.Geo, error) {
	if _, err := strconv.Atoi(zipcode); err != nil {
		return job.Geo{}, fmt.Errorf("invalid zipcode %#v", zipcode)
	}
	return g.Geocode(zipcode)
}

func formattedAddress(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += p
	}
	return out
}
