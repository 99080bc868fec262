package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ratesync-service/internal/application"
	"ratesync-service/internal/domain"
	"ratesync-service/internal/infrastructure/httpx"
)

const (
	exchangeRatesLatestPath = "/v1/latest"
)

// ExchangeRatesAPIProvider reads EUR-based rates from exchangeratesapi.io and
// derives the requested cross rate.
type ExchangeRatesAPIProvider struct {
	BaseURL string
	APIKey  string
	Client  *httpx.Client
}

var _ application.RateProvider = (*ExchangeRatesAPIProvider)(nil)

type xrLatestResp struct {
	Success   bool               `json:"success"`
	Timestamp int64              `json:"timestamp"`
	Base      string             `json:"base"`
	Date      string             `json:"date"`
	Rates     map[string]float64 `json:"rates"`
	Error     *struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error,omitempty"`
}

func (p *ExchangeRatesAPIProvider) Get(ctx context.Context, pair string) (domain.Quote, error) {
	if p.BaseURL == "" || p.APIKey == "" {
		return domain.Quote{}, errors.New("exchangeratesapi: missing configuration")
	}
	if !domain.ValidatePair(pair) {
		return domain.Quote{}, fmt.Errorf("exchangeratesapi: %w: %s", domain.ErrUnsupportedPair, pair)
	}
	baseCur, quoteCur, _ := domain.SplitPair(pair)

	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("exchangeratesapi: invalid base url: %w", err)
	}
	u.Path = exchangeRatesLatestPath
	q := u.Query()
	q.Set("access_key", p.APIKey)
	q.Set("symbols", baseCur+","+quoteCur)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("exchangeratesapi: create request: %w", err)
	}

	client := p.Client
	if client == nil {
		client = &httpx.Client{}
	}
	var body xrLatestResp
	if err := client.DoJSON(ctx, req, &body); err != nil {
		return domain.Quote{}, fmt.Errorf("exchangeratesapi: %w", err)
	}
	if !body.Success {
		if body.Error != nil {
			return domain.Quote{}, fmt.Errorf("exchangeratesapi: %d %s", body.Error.Code, body.Error.Info)
		}
		return domain.Quote{}, errors.New("exchangeratesapi: unsuccessful response")
	}

	price, err := crossRate(body.Base, body.Rates, baseCur, quoteCur)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("exchangeratesapi: %w", err)
	}

	updatedAt := time.Now().UTC()
	if body.Timestamp > 0 {
		updatedAt = time.Unix(body.Timestamp, 0).UTC()
	}
	return domain.Quote{
		Pair:      domain.Pair(pair),
		Price:     price,
		UpdatedAt: updatedAt,
	}, nil
}

// crossRate returns units of quoteCur per one baseCur given rates quoted against src.
func crossRate(src string, rates map[string]float64, baseCur, quoteCur string) (float64, error) {
	srcTo := func(c string) (float64, error) {
		if c == src {
			return 1.0, nil
		}
		v, ok := rates[c]
		if !ok {
			return 0, fmt.Errorf("missing rate for %s", c)
		}
		return v, nil
	}
	toBase, err := srcTo(baseCur)
	if err != nil {
		return 0, err
	}
	toQuote, err := srcTo(quoteCur)
	if err != nil {
		return 0, err
	}
	if toBase == 0 {
		return 0, errors.New("zero rate for base currency")
	}
	return toQuote / toBase, nil
}
