// Package compose merges per-kind aggregation results into one outbound
// notification message.
package compose

import (
	"fmt"
	"strings"

	"github.com/chichivochi/chinazes-weather/internal/content"
	"github.com/chichivochi/chinazes-weather/internal/localization"
)

// Blocks always render in this order, whatever order the aggregator used.
// Weather is the primary block: if it is unavailable the message carries an
// explicit notice, while optional blocks simply disappear.
var blockOrder = []content.Kind{content.KindWeather, content.KindHoroscope, content.KindNews}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

type Composer struct {
	localizer *localization.Localizer
}

func New(localizer *localization.Localizer) *Composer {
	return &Composer{localizer: localizer}
}

// Notification builds the final message text. It never fails: at worst a
// block is dropped, and an unavailable primary block becomes a notice line.
func (c *Composer) Notification(lang string, results []content.Result) string {
	var blocks []string
	for _, kind := range blockOrder {
		res, ok := findKind(results, kind)
		if !ok {
			continue
		}
		switch res.Status {
		case content.StatusFetched:
			if b := c.block(lang, res); b != "" {
				blocks = append(blocks, b)
			}
		case content.StatusUnavailable:
			if kind == content.KindWeather {
				blocks = append(blocks, c.localizer.GetMessage(lang, "weather_unavailable"))
			}
		case content.StatusEmpty:
			// nothing to show, no noise either
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (c *Composer) block(lang string, res content.Result) string {
	switch res.Kind {
	case content.KindWeather:
		if res.Weather == nil {
			return ""
		}
		w := res.Weather
		format := c.localizer.GetMessage(lang, "weather_format")
		return fmt.Sprintf(format,
			htmlEscaper.Replace(w.Place),
			w.Temp, w.FeelsLike,
			htmlEscaper.Replace(w.Description),
			w.WindSpeed,
			c.advice(lang, w.Temp),
		)
	case content.KindHoroscope:
		if res.Horoscope == nil {
			return ""
		}
		format := c.localizer.GetMessage(lang, "horoscope_format")
		signName := c.localizer.GetMessage(lang, "sign_"+res.Horoscope.Sign)
		return fmt.Sprintf(format, signName, htmlEscaper.Replace(res.Horoscope.Text))
	case content.KindNews:
		if res.News == nil {
			return ""
		}
		format := c.localizer.GetMessage(lang, "news_format")
		return strings.TrimSpace(fmt.Sprintf(format,
			htmlEscaper.Replace(res.News.Title), res.News.Link))
	}
	return ""
}

// advice maps the temperature to a clothing tip.
func (c *Composer) advice(lang string, temp float64) string {
	switch {
	case temp < 0:
		return c.localizer.GetMessage(lang, "advice_freezing")
	case temp < 10:
		return c.localizer.GetMessage(lang, "advice_cold")
	case temp < 20:
		return c.localizer.GetMessage(lang, "advice_mild")
	default:
		return c.localizer.GetMessage(lang, "advice_warm")
	}
}

func findKind(results []content.Result, kind content.Kind) (content.Result, bool) {
	for _, r := range results {
		if r.Kind == kind {
			return r, true
		}
	}
	return content.Result{}, false
}
