package content

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// Ohmanda is the primary horoscope provider (ohmanda.com daily API).
type Ohmanda struct {
	BaseURL string
	Client  *http.Client
}

func NewOhmanda(baseURL string) *Ohmanda {
	return &Ohmanda{BaseURL: baseURL, Client: http.DefaultClient}
}

func (h *Ohmanda) Name() string { return "ohmanda" }

func (h *Ohmanda) Fetch(ctx context.Context, p Params) (*Result, error) {
	if p.Sign == "" {
		return nil, permanentErr(h.Name(), errors.New("no sign in request"))
	}

	var payload struct {
		Sign      string `json:"sign"`
		Horoscope string `json:"horoscope"`
	}
	reqURL := h.BaseURL + "/" + url.PathEscape(p.Sign)
	if err := getJSON(ctx, h.Client, h.Name(), reqURL, &payload); err != nil {
		return nil, err
	}
	if payload.Horoscope == "" {
		return nil, nil
	}
	return &Result{Horoscope: &Horoscope{Sign: p.Sign, Text: payload.Horoscope}}, nil
}

// Aztro is the fallback horoscope provider (aztro API, POST-based).
type Aztro struct {
	BaseURL string
	Client  *http.Client
}

func NewAztro(baseURL string) *Aztro {
	return &Aztro{BaseURL: baseURL, Client: http.DefaultClient}
}

func (h *Aztro) Name() string { return "aztro" }

func (h *Aztro) Fetch(ctx context.Context, p Params) (*Result, error) {
	if p.Sign == "" {
		return nil, permanentErr(h.Name(), errors.New("no sign in request"))
	}

	q := url.Values{}
	q.Set("sign", p.Sign)
	q.Set("day", "today")
	reqURL := h.BaseURL + "/?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return nil, transientErr(h.Name(), err)
	}
	res, err := h.Client.Do(req)
	if err != nil {
		return nil, transientErr(h.Name(), err)
	}
	defer res.Body.Close()

	payload, err := decodeAztro(res)
	if err != nil {
		return nil, err
	}
	if payload == "" {
		return nil, nil
	}
	return &Result{Horoscope: &Horoscope{Sign: p.Sign, Text: payload}}, nil
}

func decodeAztro(res *http.Response) (string, error) {
	const name = "aztro"
	if res.StatusCode != http.StatusOK {
		err := errors.New("status " + res.Status)
		if res.StatusCode == http.StatusNotFound {
			return "", permanentErr(name, err)
		}
		return "", transientErr(name, err)
	}
	var payload struct {
		Description string `json:"description"`
	}
	if err := decodeBody(res, &payload); err != nil {
		return "", transientErr(name, err)
	}
	return payload.Description, nil
}
