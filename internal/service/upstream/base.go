package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"PippyDesk/internal/domain/models"
	upmetrics "PippyDesk/internal/service/metrics"
	xhttp "PippyDesk/pkg/http"
	"PippyDesk/pkg/retry"
)

// Base is the shared foundation for provider HTTP clients.
// It owns client construction and maps transport failures onto the domain taxonomy.
type Base struct {
	name    string
	baseURL string
	client  *xhttp.Client
}

// New builds a base for the named provider.
func New(name, baseURL string, timeout time.Duration, opts ...xhttp.ClientOption) *Base {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	upmetrics.Register()
	all := append([]xhttp.ClientOption{xhttp.WithTimeout(timeout)}, opts...)
	return &Base{
		name:    name,
		baseURL: baseURL,
		client:  xhttp.NewClient(all...),
	}
}

// Name returns the provider name.
func (b *Base) Name() string { return b.name }

// BaseURL returns the configured root URL.
func (b *Base) BaseURL() string { return b.baseURL }

// GetJSON issues GET baseURL+path with query params and decodes the JSON body into dest.
func (b *Base) GetJSON(ctx context.Context, path string, query map[string][]string, headers map[string]string, dest interface{}) (err error) {
	defer b.observe(xhttp.MethodGet, time.Now(), &err)
	err = b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.baseURL + path,
		Headers:     headers,
		QueryParams: query,
	}, dest)
	return b.Classify(err)
}

// PostJSON posts payload to baseURL+path and decodes the JSON body into dest.
func (b *Base) PostJSON(ctx context.Context, path string, query map[string][]string, headers map[string]string, payload, dest interface{}) (err error) {
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	defer b.observe(xhttp.MethodPost, time.Now(), &err)
	err = b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodPost,
		URL:         b.baseURL + path,
		Headers:     h,
		QueryParams: query,
		Body:        payload,
	}, dest)
	return b.Classify(err)
}

func (b *Base) observe(method string, start time.Time, err *error) {
	upmetrics.ObserveCall(b.name, method, start, *err)
}

// Classify wraps err with the matching domain sentinel.
// Client errors other than 408 and 429 are permanent; rejected credentials map to not_configured.
func (b *Base) Classify(err error) error {
	if err == nil {
		return nil
	}
	var se *xhttp.StatusError
	switch {
	case xhttp.IsRateLimited(err):
		return fmt.Errorf("%s: %w: %w", b.name, models.ErrRateLimited, err)
	case errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden):
		return retry.Permanent(fmt.Errorf("%s: credentials rejected: %w: %w", b.name, models.ErrNotConfigured, err))
	case errors.As(err, &se) && se.Code >= 400 && se.Code < 500 && se.Code != http.StatusRequestTimeout:
		return retry.Permanent(fmt.Errorf("%s: request rejected: %w: %w", b.name, models.ErrTransport, err))
	case xhttp.IsDecodeError(err):
		return fmt.Errorf("%s: %w: %w", b.name, models.ErrInvalidPayload, err)
	default:
		return fmt.Errorf("%s: %w: %w", b.name, models.ErrTransport, err)
	}
}
