package marketplace

//go:generate go run go.uber.org/mock/mockgen -source=./marketplace.go -destination=./mocks/marketplace_mock.go -package=mocks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"agrirent/config"
	"agrirent/infras/otel"
	"agrirent/shared/constant"
	"agrirent/shared/failure"
)

// Client is the JSON-over-HTTP client for the marketplace backend. Every
// suspension point in the booking workflow goes through here.
type Client interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body any, out any) error
	Put(ctx context.Context, path string, body any, out any) error
}

type clientImpl struct {
	baseURL    string
	httpClient *http.Client
	otel       otel.Otel
}

func New(cfg *config.Config, ot otel.Otel) Client {
	timeout := time.Duration(cfg.Backend.TimeoutSeconds) * time.Second

	log.Info().Str("base_url", cfg.Backend.BaseURL).Dur("timeout", timeout).Msg("Marketplace backend client initialized")

	return &clientImpl{
		baseURL: strings.TrimRight(cfg.Backend.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		otel: ot,
	}
}

// errorBody matches the backend's error envelope. unavailableDates rides
// along on availability rejections so the caller can name offending dates.
type errorBody struct {
	Message          string   `json:"message"`
	Error            string   `json:"error"`
	UnavailableDates []string `json:"unavailableDates"`
}

func (c *clientImpl) Get(ctx context.Context, path string, query url.Values, out any) error {
	target := path
	if len(query) > 0 {
		target = fmt.Sprintf("%s?%s", path, query.Encode())
	}

	return c.do(ctx, http.MethodGet, target, nil, out)
}

func (c *clientImpl) Post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *clientImpl) Put(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *clientImpl) do(ctx context.Context, method, path string, body, out any) (err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".backend")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttributes(map[string]any{
		"http.method": method,
		"http.path":   path,
	})

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build backend request: %w", err)
	}

	request.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)

	response, err := c.httpClient.Do(request)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("backend round trip failed")

		return failure.Upstream(constant.Empty) //nolint:wrapcheck
	}
	defer response.Body.Close()

	scope.SetAttribute("http.status_code", response.StatusCode)

	if response.StatusCode >= http.StatusBadRequest {
		return c.mapError(response, method, path)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to decode backend response")

		return failure.Upstream("malformed response from marketplace backend") //nolint:wrapcheck
	}

	return nil
}

// mapError keeps client-meaningful backend codes (validation, conflict,
// not-found) and folds everything else into an upstream failure. The
// server-provided message wins over the generic one when present.
func (c *clientImpl) mapError(response *http.Response, method, path string) error {
	var body errorBody

	raw, _ := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	_ = json.Unmarshal(raw, &body)

	message := body.Message
	if message == constant.Empty {
		message = body.Error
	}

	log.Warn().
		Int("status", response.StatusCode).
		Str("method", method).
		Str("path", path).
		Str("message", message).
		Msg("backend rejected request")

	if response.StatusCode >= http.StatusInternalServerError {
		return failure.Upstream(message) //nolint:wrapcheck
	}

	if message == constant.Empty {
		message = http.StatusText(response.StatusCode)
	}

	return &failure.Failure{
		Code:    response.StatusCode,
		Message: message,
		Dates:   body.UnavailableDates,
	}
}
