// Package content assembles notification blocks from chains of independent
// data providers. Each content kind owns an ordered provider list; providers
// are tried in order until one yields a result.
package content

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Kind string

const (
	KindWeather   Kind = "weather"
	KindHoroscope Kind = "horoscope"
	KindNews      Kind = "news"
)

type Status int

const (
	// StatusFetched means a provider returned a usable payload.
	StatusFetched Status = iota
	// StatusEmpty means the chain ran but there is nothing to show. The
	// composer drops the block without any error text.
	StatusEmpty
	// StatusUnavailable means every provider failed. Optional blocks are
	// dropped, the primary block renders a failure line.
	StatusUnavailable
)

type Params struct {
	LocationKind string
	City         string
	Lat          float64
	Lon          float64
	Sign         string
	Lang         string
	Timezone     string
}

type Weather struct {
	Place       string
	Temp        float64
	FeelsLike   float64
	Description string
	WindSpeed   float64
}

type Horoscope struct {
	Sign string
	Text string
}

type NewsItem struct {
	Title     string
	Link      string
	Published time.Time
}

type Result struct {
	Kind     Kind
	Status   Status
	Provider string

	Weather   *Weather
	Horoscope *Horoscope
	News      *NewsItem
}

// ProviderError wraps a provider failure. Permanent failures (the request
// itself is unanswerable, e.g. an unknown city) stop the fallback chain;
// transient ones advance it.
type ProviderError struct {
	Provider  string
	Permanent bool
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func transientErr(provider string, err error) error {
	return &ProviderError{Provider: provider, Err: err}
}

func permanentErr(provider string, err error) error {
	return &ProviderError{Provider: provider, Permanent: true, Err: err}
}

func decodeBody(res *http.Response, v any) error {
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	return nil
}
