package provider

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"wayfarer/pkg/model"
)

const (
	hotelsByCityPath    = "/v1/reference-data/locations/hotels/by-city"
	hotelOffersPath     = "/v3/shopping/hotel-offers"
	hotelBookingsPath   = "/v1/booking/hotel-bookings"
	maxHotelIDsPerQuery = 20
)

type Hotel struct {
	HotelID string `json:"hotelId"`
	Name    string `json:"name"`
}

// ListHotelsByCity returns the provider's hotel directory for an IATA
// city code. Directory entries carry no availability or price.
func (g *Gateway) ListHotelsByCity(ctx context.Context, cityCode string) ([]Hotel, error) {
	params := url.Values{}
	params.Set("cityCode", cityCode)

	resp, err := g.get(ctx, "hotels-by-city", hotelsByCityPath+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var body struct {
		Data []Hotel `json:"data"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, &Error{Op: "hotels-by-city", StatusCode: resp.StatusCode, Err: err}
	}
	return body.Data, nil
}

type HotelOffersRequest struct {
	HotelIDs     []string
	CheckInDate  string
	CheckOutDate string
	Adults       int
}

// SearchHotelOffers fetches bookable offers for a set of hotel IDs. The
// provider caps the number of IDs per request, so callers pass at most
// maxHotelIDsPerQuery at a time.
func (g *Gateway) SearchHotelOffers(ctx context.Context, req HotelOffersRequest) (json.RawMessage, error) {
	if req.Adults <= 0 {
		req.Adults = 1
	}
	ids := req.HotelIDs
	if len(ids) > maxHotelIDsPerQuery {
		ids = ids[:maxHotelIDsPerQuery]
	}

	params := url.Values{}
	for _, id := range ids {
		params.Add("hotelIds", id)
	}
	params.Set("checkInDate", req.CheckInDate)
	params.Set("checkOutDate", req.CheckOutDate)
	params.Set("adults", strconv.Itoa(req.Adults))

	resp, err := g.get(ctx, "hotel-offers-search", hotelOffersPath+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, &Error{Op: "hotel-offers-search", StatusCode: resp.StatusCode, Err: err}
	}
	return body.Data, nil
}

// HotelOrder is the provider's confirmation of a hotel booking.
type HotelOrder struct {
	ConfirmationID string
	HotelID        string
	HotelName      string
	CheckInDate    string
	CheckOutDate   string
	RoomType       string
	PriceTotal     string
	PriceCurrency  string
}

// BookHotel books a previously returned offer by ID. Same contract as
// flight order creation: never retried by callers on failure.
func (g *Gateway) BookHotel(ctx context.Context, offerID string, guests []model.Guest) (*HotelOrder, error) {
	providerGuests := make([]map[string]any, 0, len(guests))
	for i, guest := range guests {
		providerGuests = append(providerGuests, map[string]any{
			"tid":       i + 1,
			"title":     guest.Title,
			"firstName": guest.FirstName,
			"lastName":  guest.LastName,
			"phone":     guest.Phone,
			"email":     guest.Email,
		})
	}

	payload := map[string]any{
		"data": map[string]any{
			"type": "hotel-order",
			"roomAssociations": []map[string]any{
				{
					"guestReferences": []map[string]any{
						{"guestReference": "1"},
					},
					"hotelOfferId": offerID,
				},
			},
			"guests": providerGuests,
		},
	}

	resp, err := g.post(ctx, "hotel-booking-create", hotelBookingsPath, payload)
	if err != nil {
		return nil, err
	}

	var body struct {
		Data []struct {
			ID            string `json:"id"`
			HotelBookings []struct {
				Hotel struct {
					HotelID string `json:"hotelId"`
					Name    string `json:"name"`
				} `json:"hotel"`
				HotelOffer struct {
					CheckInDate  string `json:"checkInDate"`
					CheckOutDate string `json:"checkOutDate"`
					Room         struct {
						Type string `json:"type"`
					} `json:"room"`
					Price struct {
						Total    string `json:"total"`
						Currency string `json:"currency"`
					} `json:"price"`
				} `json:"hotelOffer"`
			} `json:"hotelBookings"`
		} `json:"data"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, &Error{Op: "hotel-booking-create", StatusCode: resp.StatusCode, Err: err}
	}
	if len(body.Data) == 0 || body.Data[0].ID == "" {
		return nil, &Error{Op: "hotel-booking-create", StatusCode: resp.StatusCode, Body: resp.Body}
	}

	order := &HotelOrder{ConfirmationID: body.Data[0].ID}
	if len(body.Data[0].HotelBookings) > 0 {
		hb := body.Data[0].HotelBookings[0]
		order.HotelID = hb.Hotel.HotelID
		order.HotelName = hb.Hotel.Name
		order.CheckInDate = hb.HotelOffer.CheckInDate
		order.CheckOutDate = hb.HotelOffer.CheckOutDate
		order.RoomType = hb.HotelOffer.Room.Type
		order.PriceTotal = hb.HotelOffer.Price.Total
		order.PriceCurrency = hb.HotelOffer.Price.Currency
	}
	return order, nil
}
