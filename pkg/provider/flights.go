package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"wayfarer/pkg/model"
)

const (
	flightOffersPath  = "/v2/shopping/flight-offers"
	flightPricingPath = "/v1/shopping/flight-offers/pricing"
	flightOrdersPath  = "/v1/booking/flight-orders"
	delayPredictPath  = "/v1/travel/predictions/flight-delay"
)

type FlightSearchRequest struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Passengers    int
	CabinClass    string
}

// SearchFlightOffers runs the provider's offer search and returns the
// raw offer list. Offers are opaque to us: a client sends one back
// verbatim when booking.
func (g *Gateway) SearchFlightOffers(ctx context.Context, req FlightSearchRequest) (json.RawMessage, error) {
	if req.Passengers <= 0 {
		req.Passengers = 1
	}
	if req.CabinClass == "" {
		req.CabinClass = "ECONOMY"
	}

	travelers := make([]map[string]any, 0, req.Passengers)
	for i := 0; i < req.Passengers; i++ {
		travelers = append(travelers, map[string]any{
			"id":           strconv.Itoa(i + 1),
			"travelerType": "ADULT",
		})
	}

	originDestinations := []map[string]any{
		{
			"id":                      "1",
			"originLocationCode":      req.Origin,
			"destinationLocationCode": req.Destination,
			"departureDateTimeRange": map[string]any{
				"date": req.DepartureDate,
				"time": "00:00:00",
			},
		},
	}
	originDestinationIDs := []string{"1"}
	if req.ReturnDate != "" {
		originDestinations = append(originDestinations, map[string]any{
			"id":                      "2",
			"originLocationCode":      req.Destination,
			"destinationLocationCode": req.Origin,
			"departureDateTimeRange": map[string]any{
				"date": req.ReturnDate,
				"time": "00:00:00",
			},
		})
		originDestinationIDs = append(originDestinationIDs, "2")
	}

	payload := map[string]any{
		"currencyCode":       "USD",
		"originDestinations": originDestinations,
		"travelers":          travelers,
		"sources":            []string{"GDS"},
		"searchCriteria": map[string]any{
			"maxFlightOffers": 50,
			"flightFilters": map[string]any{
				"cabinRestrictions": []map[string]any{
					{
						"cabin":                req.CabinClass,
						"coverage":             "MOST_SEGMENTS",
						"originDestinationIds": originDestinationIDs,
					},
				},
			},
		},
	}

	resp, err := g.post(ctx, "flight-offers-search", flightOffersPath, payload)
	if err != nil {
		return nil, err
	}

	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, &Error{Op: "flight-offers-search", StatusCode: resp.StatusCode, Err: err}
	}
	return body.Data, nil
}

// PricedOffer is the provider's re-priced version of a submitted offer.
// The raw offer must be forwarded unchanged into order creation.
type PricedOffer struct {
	Raw     json.RawMessage
	Summary OfferSummary
}

type OfferSummary struct {
	Departure     string
	Arrival       string
	DepartureAt   time.Time
	ArrivalAt     *time.Time
	CarrierCode   string
	FlightNumber  string
	PriceTotal    string
	PriceCurrency string
}

// ConfirmPricing is phase one of the booking flow: the provider verifies
// the offer is still available and returns its current price.
func (g *Gateway) ConfirmPricing(ctx context.Context, offer json.RawMessage) (*PricedOffer, error) {
	payload := map[string]any{
		"data": map[string]any{
			"type":         "flight-offers-pricing",
			"flightOffers": []json.RawMessage{offer},
		},
	}

	resp, err := g.post(ctx, "flight-offers-pricing", flightPricingPath, payload)
	if err != nil {
		return nil, err
	}

	var body struct {
		Data struct {
			FlightOffers []json.RawMessage `json:"flightOffers"`
		} `json:"data"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, &Error{Op: "flight-offers-pricing", StatusCode: resp.StatusCode, Err: err}
	}
	if len(body.Data.FlightOffers) == 0 {
		return nil, &Error{Op: "flight-offers-pricing", StatusCode: resp.StatusCode, Body: resp.Body}
	}

	raw := body.Data.FlightOffers[0]
	summary, err := summarizeOffer(raw)
	if err != nil {
		return nil, &Error{Op: "flight-offers-pricing", StatusCode: resp.StatusCode, Err: err}
	}

	return &PricedOffer{Raw: raw, Summary: summary}, nil
}

// FlightOrder is the provider's confirmation of a created order.
type FlightOrder struct {
	ConfirmationID string
	Summary        OfferSummary
}

// CreateOrder is phase two: it must only ever be called with an offer
// returned by ConfirmPricing, and never retried on failure by callers.
func (g *Gateway) CreateOrder(ctx context.Context, priced *PricedOffer, travelers []model.Traveler) (*FlightOrder, error) {
	providerTravelers := make([]map[string]any, 0, len(travelers))
	for i, t := range travelers {
		pt := map[string]any{
			"id":          strconv.Itoa(i + 1),
			"dateOfBirth": t.DateOfBirth,
			"name": map[string]any{
				"firstName": t.FirstName,
				"lastName":  t.LastName,
			},
			"contact": map[string]any{
				"emailAddress": t.Email,
			},
		}
		if t.Phone != "" {
			pt["contact"] = map[string]any{
				"emailAddress": t.Email,
				"phones": []map[string]any{
					{"deviceType": "MOBILE", "number": t.Phone},
				},
			}
		}
		providerTravelers = append(providerTravelers, pt)
	}

	payload := map[string]any{
		"data": map[string]any{
			"type":         "flight-order",
			"flightOffers": []json.RawMessage{priced.Raw},
			"travelers":    providerTravelers,
		},
	}

	resp, err := g.post(ctx, "flight-order-create", flightOrdersPath, payload)
	if err != nil {
		return nil, err
	}

	var body struct {
		Data struct {
			ID           string            `json:"id"`
			FlightOffers []json.RawMessage `json:"flightOffers"`
		} `json:"data"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, &Error{Op: "flight-order-create", StatusCode: resp.StatusCode, Err: err}
	}
	if body.Data.ID == "" {
		return nil, &Error{Op: "flight-order-create", StatusCode: resp.StatusCode, Body: resp.Body}
	}

	summary := priced.Summary
	if len(body.Data.FlightOffers) > 0 {
		if s, err := summarizeOffer(body.Data.FlightOffers[0]); err == nil {
			summary = s
		}
	}

	return &FlightOrder{ConfirmationID: body.Data.ID, Summary: summary}, nil
}

type DelayPredictionRequest struct {
	Origin        string
	Destination   string
	DepartureDate string
	DepartureTime string
	ArrivalDate   string
	ArrivalTime   string
	AircraftCode  string
	CarrierCode   string
	FlightNumber  string
	Duration      string
}

type DelayPrediction struct {
	Result      string `json:"result"`
	Probability string `json:"probability"`
}

func (g *Gateway) PredictDelay(ctx context.Context, req DelayPredictionRequest) ([]DelayPrediction, error) {
	params := url.Values{}
	params.Set("originLocationCode", req.Origin)
	params.Set("destinationLocationCode", req.Destination)
	params.Set("departureDate", req.DepartureDate)
	params.Set("departureTime", req.DepartureTime)
	params.Set("arrivalDate", req.ArrivalDate)
	params.Set("arrivalTime", req.ArrivalTime)
	params.Set("aircraftCode", req.AircraftCode)
	params.Set("carrierCode", req.CarrierCode)
	params.Set("flightNumber", req.FlightNumber)
	params.Set("duration", req.Duration)

	resp, err := g.get(ctx, "flight-delay-prediction", delayPredictPath+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var body struct {
		Data []DelayPrediction `json:"data"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, &Error{Op: "flight-delay-prediction", StatusCode: resp.StatusCode, Err: err}
	}
	return body.Data, nil
}

func summarizeOffer(raw json.RawMessage) (OfferSummary, error) {
	var offer struct {
		Price struct {
			Total    string `json:"total"`
			Currency string `json:"currency"`
		} `json:"price"`
		Itineraries []struct {
			Segments []struct {
				Departure struct {
					IataCode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"departure"`
				Arrival struct {
					IataCode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"arrival"`
				CarrierCode string `json:"carrierCode"`
				Number      string `json:"number"`
			} `json:"segments"`
		} `json:"itineraries"`
	}
	if err := json.Unmarshal(raw, &offer); err != nil {
		return OfferSummary{}, fmt.Errorf("failed to decode offer: %w", err)
	}
	if len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
		return OfferSummary{}, fmt.Errorf("offer has no itinerary segments")
	}

	outbound := offer.Itineraries[0].Segments
	first := outbound[0]
	last := outbound[len(outbound)-1]

	departureAt, err := parseSegmentTime(first.Departure.At)
	if err != nil {
		return OfferSummary{}, err
	}

	summary := OfferSummary{
		Departure:     first.Departure.IataCode,
		Arrival:       last.Arrival.IataCode,
		DepartureAt:   departureAt,
		CarrierCode:   first.CarrierCode,
		FlightNumber:  first.Number,
		PriceTotal:    offer.Price.Total,
		PriceCurrency: offer.Price.Currency,
	}

	if arrivalAt, err := parseSegmentTime(last.Arrival.At); err == nil {
		summary.ArrivalAt = &arrivalAt
	}

	return summary, nil
}

// Segment timestamps come without a zone offset ("2025-03-12T06:59:00").
func parseSegmentTime(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse segment time %q: %w", s, err)
	}
	return t, nil
}
