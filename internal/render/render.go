package render

import (
	"embed"
	htmltemplate "html/template"
	"io"
	"math"
	"strconv"
	texttemplate "text/template"
	"time"

	"github.com/vzahanych/weather-cards/internal/forecast"
)

const Title = "Weather App"

//go:embed templates
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

// Cards is the display form of a WeatherData. A nil *Cards renders as the
// loading placeholder.
type Cards struct {
	Daily   []DailyCard
	Current CurrentCard
}

type DailyCard struct {
	Date    time.Time
	Weekday string
	Max     string
	Min     string
}

type CurrentCard struct {
	Time                string
	ApparentTemperature string
	IsDay               string
	Precipitation       string
	Rain                string
	Showers             string
	Snowfall            string
}

// Page is the root container: page chrome around the forecast cards.
type Page struct {
	Title       string
	Coordinates forecast.Coordinates
	Cards       *Cards
}

func NewPage(coords forecast.Coordinates, data *forecast.WeatherData) Page {
	return Page{
		Title:       Title,
		Coordinates: coords,
		Cards:       BuildCards(data),
	}
}

// BuildCards rounds temperatures and formats everything else as returned.
func BuildCards(data *forecast.WeatherData) *Cards {
	if data == nil {
		return nil
	}

	cards := &Cards{Daily: make([]DailyCard, len(data.Daily.Time))}
	for i, t := range data.Daily.Time {
		cards.Daily[i] = DailyCard{
			Date:    t,
			Weekday: Weekday(t),
			Max:     RoundTemperature(data.Daily.Temperature2mMax[i]),
			Min:     RoundTemperature(data.Daily.Temperature2mMin[i]),
		}
	}

	c := data.Current
	cards.Current = CurrentCard{
		Time:                ClockTime(c.Time),
		ApparentTemperature: RoundTemperature(c.ApparentTemperature),
		IsDay:               YesNo(c.IsDay),
		Precipitation:       FormatValue(c.Precipitation),
		Rain:                FormatValue(c.Rain),
		Showers:             FormatValue(c.Showers),
		Snowfall:            FormatValue(c.Snowfall),
	}

	return cards
}

// Weekday names the local date. Times carry the location offset already, so
// the wall clock is read in UTC.
func Weekday(t time.Time) string {
	return t.UTC().Weekday().String()
}

func ClockTime(t time.Time) string {
	return t.UTC().Format("15:04")
}

// RoundTemperature rounds half away from zero to whole degrees.
func RoundTemperature(v float64) string {
	return FormatValue(math.Round(v))
}

func FormatValue(v float64) string {
	if v == 0 {
		// drop the sign of negative zero
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func YesNo(v float64) string {
	if v != 0 && !math.IsNaN(v) {
		return "Yes"
	}
	return "No"
}

// HTMLTemplates returns the parsed "page" and "forecast" templates.
func HTMLTemplates() *htmltemplate.Template {
	return htmlTemplates
}

func WriteHTML(w io.Writer, page Page) error {
	return htmlTemplates.ExecuteTemplate(w, "page", page)
}

func WriteText(w io.Writer, cards *Cards) error {
	return textTemplates.ExecuteTemplate(w, "forecast", cards)
}
