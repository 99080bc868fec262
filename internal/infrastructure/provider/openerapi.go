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

// OpenERAPIProvider reads the keyless open.er-api.com feed, which quotes every
// currency against the requested base.
type OpenERAPIProvider struct {
	BaseURL string
	Client  *httpx.Client
}

var _ application.RateProvider = (*OpenERAPIProvider)(nil)

type openERLatestResp struct {
	Result             string             `json:"result"`
	ErrorType          string             `json:"error-type"`
	BaseCode           string             `json:"base_code"`
	TimeLastUpdateUnix int64              `json:"time_last_update_unix"`
	Rates              map[string]float64 `json:"rates"`
}

func (p *OpenERAPIProvider) Get(ctx context.Context, pair string) (domain.Quote, error) {
	if p.BaseURL == "" {
		return domain.Quote{}, errors.New("openerapi: missing configuration")
	}
	if !domain.ValidatePair(pair) {
		return domain.Quote{}, fmt.Errorf("openerapi: %w: %s", domain.ErrUnsupportedPair, pair)
	}
	baseCur, quoteCur, _ := domain.SplitPair(pair)

	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("openerapi: invalid base url: %w", err)
	}
	u = u.JoinPath("v6", "latest", baseCur)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("openerapi: create request: %w", err)
	}
	client := p.Client
	if client == nil {
		client = &httpx.Client{}
	}
	var body openERLatestResp
	if err := client.DoJSON(ctx, req, &body); err != nil {
		return domain.Quote{}, fmt.Errorf("openerapi: %w", err)
	}
	if body.Result != "success" {
		if body.ErrorType != "" {
			return domain.Quote{}, fmt.Errorf("openerapi: %s", body.ErrorType)
		}
		return domain.Quote{}, errors.New("openerapi: unsuccessful response")
	}
	src := body.BaseCode
	if src == "" {
		src = baseCur
	}
	price, err := crossRate(src, body.Rates, baseCur, quoteCur)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("openerapi: %w", err)
	}

	updatedAt := time.Now().UTC()
	if body.TimeLastUpdateUnix > 0 {
		updatedAt = time.Unix(body.TimeLastUpdateUnix, 0).UTC()
	}
	return domain.Quote{Pair: domain.Pair(pair), Price: price, UpdatedAt: updatedAt}, nil
}
