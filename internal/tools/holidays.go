package tools

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"

	"github.com/alokm/hr-assistant/internal/holiday"
)

// maxInlineHolidays caps how many holidays a single tool result lists.
const maxInlineHolidays = 20

// defaultUpcomingLimit is how many upcoming holidays are returned by default.
const defaultUpcomingLimit = 5

const missingKeyMsg = "Holiday API key is not configured. Please set HOLIDAY_API_KEY in environment variables."

// holidayBase carries the shared state of the holiday tools. client is nil
// when no API key is configured.
type holidayBase struct {
	client  *holiday.Client
	country string
	now     func() time.Time
}

func (b holidayBase) countryOr(override string) string {
	if override != "" {
		return override
	}
	return b.country
}

// describeFetchErr turns a holiday client failure into the user-visible
// string fed back to the model.
func describeFetchErr(err error) string {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "Holiday API request timed out. Please try again later."
	}
	return fmt.Sprintf("Error fetching holidays: %v", err)
}

func bullet(h holiday.Holiday) string {
	return fmt.Sprintf("• %s - %s (%s)\n", h.Name, h.Date.ISO, strings.Join(h.Type, ", "))
}

// countrySchema is the shared declaration property for the country argument.
func countrySchema() *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeString,
		Description: "ISO 3166-1 alpha-2 country code. Omit for the configured default.",
	}
}

// HolidaysTool lists all holidays for a country and year.
type HolidaysTool struct {
	holidayBase
}

// NewHolidaysTool creates the holiday-list tool. client may be nil when the
// API key is not configured.
func NewHolidaysTool(client *holiday.Client, country string) *HolidaysTool {
	return &HolidaysTool{holidayBase{client: client, country: country, now: time.Now}}
}

func (t *HolidaysTool) Name() string { return "check_holidays" }

func (t *HolidaysTool) Description() string {
	return "Fetches all holidays for a country in a given year. Use this when the user asks about holidays, " +
		"public holidays, or the leave calendar."
}

func (t *HolidaysTool) Call(ctx context.Context, input string) (string, error) {
	if t.client == nil {
		return missingKeyMsg, nil
	}

	in := parseInput(input)
	country := t.countryOr(in.Country)
	year := in.Year
	if year == 0 {
		year = t.now().Year()
	}

	holidays, err := t.client.Holidays(ctx, country, year)
	if err != nil {
		return describeFetchErr(err), nil
	}
	if len(holidays) == 0 {
		return fmt.Sprintf("No holidays found for %s in %d.", country, year), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Holidays in %s for %d:\n\n", country, year)
	shown := holidays
	if len(shown) > maxInlineHolidays {
		shown = shown[:maxInlineHolidays]
	}
	for _, h := range shown {
		b.WriteString(bullet(h))
	}
	if extra := len(holidays) - maxInlineHolidays; extra > 0 {
		fmt.Fprintf(&b, "\n...and %d more holidays.", extra)
	}
	return b.String(), nil
}

func (t *HolidaysTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"country": countrySchema(),
				"year":    {Type: genai.TypeInteger, Description: "Year to check. Omit for the current year."},
			},
		},
	}
}

// TodayHolidayTool reports whether today is a holiday.
type TodayHolidayTool struct {
	holidayBase
}

func NewTodayHolidayTool(client *holiday.Client, country string) *TodayHolidayTool {
	return &TodayHolidayTool{holidayBase{client: client, country: country, now: time.Now}}
}

func (t *TodayHolidayTool) Name() string { return "check_today_holiday" }

func (t *TodayHolidayTool) Description() string {
	return "Checks if today is a holiday. Use this when the user asks if today is a holiday or what holiday is today."
}

func (t *TodayHolidayTool) Call(ctx context.Context, input string) (string, error) {
	if t.client == nil {
		return missingKeyMsg, nil
	}

	in := parseInput(input)
	country := t.countryOr(in.Country)
	today := t.now()

	holidays, err := t.client.HolidaysOn(ctx, country, today)
	if err != nil {
		return describeFetchErr(err), nil
	}

	if len(holidays) == 0 {
		return fmt.Sprintf("No, today (%s) is not a holiday in %s.", today.Format("January 2, 2006"), country), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Yes! Today (%s) is a holiday:\n\n", today.Format("January 2, 2006"))
	for _, h := range holidays {
		fmt.Fprintf(&b, "• %s (%s)\n", h.Name, strings.Join(h.Type, ", "))
		if h.Description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", h.Description)
		}
	}
	return b.String(), nil
}

func (t *TodayHolidayTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"country": countrySchema(),
			},
		},
	}
}

// UpcomingHolidaysTool lists the next holidays from today onwards.
type UpcomingHolidaysTool struct {
	holidayBase
}

func NewUpcomingHolidaysTool(client *holiday.Client, country string) *UpcomingHolidaysTool {
	return &UpcomingHolidaysTool{holidayBase{client: client, country: country, now: time.Now}}
}

func (t *UpcomingHolidaysTool) Name() string { return "get_upcoming_holidays" }

func (t *UpcomingHolidaysTool) Description() string {
	return "Gets the next upcoming holidays. Use this when the user asks about upcoming or next holidays."
}

func (t *UpcomingHolidaysTool) Call(ctx context.Context, input string) (string, error) {
	if t.client == nil {
		return missingKeyMsg, nil
	}

	in := parseInput(input)
	country := t.countryOr(in.Country)
	limit := in.Limit
	if limit <= 0 {
		limit = defaultUpcomingLimit
	}

	today := t.now()
	holidays, err := t.client.Holidays(ctx, country, today.Year())
	if err != nil {
		return describeFetchErr(err), nil
	}

	// Keep today and later; skip entries with unparseable dates.
	cutoff := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	var upcoming []holiday.Holiday
	for _, h := range holidays {
		day, err := h.Date.Day()
		if err != nil {
			continue
		}
		if !day.Before(cutoff) {
			upcoming = append(upcoming, h)
		}
	}

	if len(upcoming) == 0 {
		return fmt.Sprintf("No upcoming holidays found for %s in %d.", country, today.Year()), nil
	}
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Upcoming holidays in %s:\n\n", country)
	for _, h := range upcoming {
		b.WriteString(bullet(h))
	}
	return b.String(), nil
}

func (t *UpcomingHolidaysTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"country": countrySchema(),
				"limit":   {Type: genai.TypeInteger, Description: "Maximum number of holidays to return (default 5)."},
			},
		},
	}
}
