// Package sanitizer provides input normalization for traveler and
// booking data.
//
// All normalization functions are idempotent - applying them multiple
// times produces the same result. Functions handle invalid input
// gracefully, typically by returning empty strings rather than errors.
//
// Normalization includes:
//   - Phone numbers: convert to E.164 format (+[country][number])
//   - Names: collapse whitespace, trim leading/trailing spaces
//   - Emails: trim and lowercase
//   - Location codes: uppercase IATA city/airport codes
package sanitizer
