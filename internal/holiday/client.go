// Package holiday is a minimal client for the Calendarific holidays API.
package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// requestTimeout bounds every holiday API call so a slow upstream degrades
// to a tool error string instead of stalling the exchange.
const requestTimeout = 10 * time.Second

// Holiday is a single holiday entry as returned by the API.
type Holiday struct {
	Name        string   `json:"name"`
	Date        Date     `json:"date"`
	Type        []string `json:"type"`
	Description string   `json:"description"`
}

// Date holds the ISO-8601 date of a holiday. The API sometimes appends a
// time component; Day strips it.
type Date struct {
	ISO string `json:"iso"`
}

// Day parses the date portion of the ISO value.
func (d Date) Day() (time.Time, error) {
	iso := d.ISO
	if len(iso) > 10 {
		iso = iso[:10]
	}
	return time.Parse("2006-01-02", iso)
}

type apiEnvelope struct {
	Meta struct {
		Code        int    `json:"code"`
		ErrorDetail string `json:"error_detail"`
	} `json:"meta"`
	Response struct {
		Holidays []Holiday `json:"holidays"`
	} `json:"response"`
}

// Client calls the Calendarific API. The zero value is not usable; use
// NewClient.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewClient creates a holiday API client with the standard request timeout.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: requestTimeout},
	}
}

// Holidays fetches all holidays for a country and year.
func (c *Client) Holidays(ctx context.Context, country string, year int) ([]Holiday, error) {
	params := url.Values{
		"country": {country},
		"year":    {strconv.Itoa(year)},
	}
	return c.fetch(ctx, params)
}

// HolidaysOn fetches the holidays falling on a specific day.
func (c *Client) HolidaysOn(ctx context.Context, country string, day time.Time) ([]Holiday, error) {
	params := url.Values{
		"country": {country},
		"year":    {strconv.Itoa(day.Year())},
		"month":   {strconv.Itoa(int(day.Month()))},
		"day":     {strconv.Itoa(day.Day())},
	}
	return c.fetch(ctx, params)
}

func (c *Client) fetch(ctx context.Context, params url.Values) ([]Holiday, error) {
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/holidays?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build holiday request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("holiday API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday API returned status %d", resp.StatusCode)
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode holiday response: %w", err)
	}
	if envelope.Meta.Code != 0 && envelope.Meta.Code != http.StatusOK {
		detail := envelope.Meta.ErrorDetail
		if detail == "" {
			detail = "unknown error"
		}
		return nil, fmt.Errorf("holiday API error: %s", detail)
	}

	return envelope.Response.Holidays, nil
}
