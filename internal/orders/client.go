package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-shop-services/internal/apperr"
	"github.com/ariefcatur/go-shop-services/internal/metrics"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// ProductClient is the order flow's view of the product service.
type ProductClient interface {
	// FetchProduct returns ErrProductNotFound when the product service has no
	// (active) product with that id.
	FetchProduct(ctx context.Context, id int64) (*ProductSnapshot, error)
	// AdjustStock subtracts delta from the product's stock if enough is left.
	// A negative delta puts stock back.
	AdjustStock(ctx context.Context, id int64, delta int) (bool, error)
}

const productPeer = "product-service"

var tracer = otel.Tracer("github.com/ariefcatur/go-shop-services/internal/orders")

// HTTPProductClient calls the product service REST API. Every call gets its
// own deadline.
type HTTPProductClient struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	metrics *metrics.Metrics
}

var _ ProductClient = (*HTTPProductClient)(nil)

func NewHTTPProductClient(baseURL string, timeout time.Duration, m *metrics.Metrics) *HTTPProductClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPProductClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
		metrics: m,
	}
}

func (c *HTTPProductClient) FetchProduct(ctx context.Context, id int64) (*ProductSnapshot, error) {
	var p ProductSnapshot
	code, err := c.do(ctx, "fetch_product", http.MethodGet, fmt.Sprintf("/products/%d", id), &p)
	if err != nil {
		return nil, err
	}
	if code == http.StatusNotFound {
		return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	return &p, nil
}

func (c *HTTPProductClient) AdjustStock(ctx context.Context, id int64, delta int) (bool, error) {
	var ok bool
	path := fmt.Sprintf("/products/%d/stock?quantity=%s", id, url.QueryEscape(strconv.Itoa(delta)))
	code, err := c.do(ctx, "adjust_stock", http.MethodPut, path, &ok)
	if err != nil {
		return false, err
	}
	if code == http.StatusNotFound {
		return false, nil
	}
	return ok, nil
}

// do performs one request. A 404 is returned as a status code, any other
// non-2xx or transport problem as an error wrapping apperr.ErrRemoteCall.
func (c *HTTPProductClient) do(ctx context.Context, endpoint, method, path string, out any) (code int, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "ProductClient."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("peer.service", productPeer),
			attribute.String("http.request.method", method),
		),
	)
	start := time.Now()
	outcome := "success"

	defer func() {
		switch {
		case err == nil && code == http.StatusNotFound:
			outcome = "not_found"
		case errors.Is(err, context.DeadlineExceeded):
			outcome = "timeout"
		case err != nil:
			outcome = "error"
		}
		if c.metrics != nil {
			c.metrics.ExternalRequests.WithLabelValues(productPeer, endpoint, outcome).Inc()
			c.metrics.ExternalDuration.WithLabelValues(productPeer, endpoint).Observe(time.Since(start).Seconds())
		}
		span.SetAttributes(attribute.Int("http.response.status_code", code))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: build %s %s: %w", apperr.ErrRemoteCall, method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if rid := middleware.GetReqID(ctx); rid != "" {
		req.Header.Set(middleware.RequestIDHeader, rid)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %w", apperr.ErrRemoteCall, method, path, err)
	}
	defer resp.Body.Close()

	code = resp.StatusCode
	if code == http.StatusNotFound {
		return code, nil
	}
	if code < 200 || code > 299 {
		return code, fmt.Errorf("%w: %s %s: status %d", apperr.ErrRemoteCall, method, path, code)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return code, fmt.Errorf("%w: decode %s %s: %w", apperr.ErrRemoteCall, method, path, err)
	}
	return code, nil
}
