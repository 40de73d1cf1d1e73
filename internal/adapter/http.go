package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/go-resty/resty/v2"
)

const (
	syncPath    = "/api/sync/tasks"
	entityPath  = "/api/entities/{key}"
	versionPath = "/api/entities/{key}/version"
	pingPath    = "/api/ping"
)

type httpServerAdapter struct {
	client *utils.HTTPClient
	ids    *utils.UUIDGenerator

	token string

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs an HTTP/REST implementation of
// [ServerAdapter]. It normalises and validates the base URL from
// cfg.HTTPAddress and configures the request timeout and bearer token.
//
// Returns an error if cfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPServerAdapter(cfg config.ClientAdapter, logger *logger.Logger) (ServerAdapter, error) {
	baseURL, err := normalizeBaseURL(cfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	return &httpServerAdapter{
		client: utils.NewHTTPClient(baseURL, cfg.RequestTimeout),
		ids:    utils.NewUUIDGenerator(),
		token:  strings.TrimSpace(cfg.Token),
		logger: logger,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// Sync implements [ServerAdapter]. It POSTs req to /api/sync/tasks with the
// idempotency key header set from req.IdempotencyKey.
func (h *httpServerAdapter) Sync(ctx context.Context, req models.SyncRequest) (models.SyncResponse, error) {
	return h.postSync(ctx, req, false)
}

// ForceSync implements [ServerAdapter]. It sends the same request as Sync
// with force set in the body and the X-Force-Update header.
func (h *httpServerAdapter) ForceSync(ctx context.Context, req models.SyncRequest) (models.SyncResponse, error) {
	req.Force = true
	return h.postSync(ctx, req, true)
}

func (h *httpServerAdapter) postSync(ctx context.Context, req models.SyncRequest, force bool) (models.SyncResponse, error) {
	r := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req)
	if req.IdempotencyKey != "" {
		r.SetHeader(models.HeaderIdempotencyKey, req.IdempotencyKey)
	}
	if force {
		r.SetHeader(models.HeaderForceUpdate, "true")
	}

	resp, err := r.Post(syncPath)
	if err != nil {
		return models.SyncResponse{}, fmt.Errorf("%w: sync request: %w", ErrTransport, err)
	}

	var result models.SyncResponse
	if resp.StatusCode() == http.StatusConflict {
		if body := resp.Body(); len(body) > 0 {
			if err = json.Unmarshal(body, &result); err != nil {
				h.logger.Warn().
					Err(err).
					Str("func", "httpServerAdapter.postSync").
					Str("key", req.Key).
					Msg("conflict response without decodable body")
			}
		}
		result.Conflict = true
		return result, nil
	}

	if err = mapHTTPError(resp); err != nil {
		return models.SyncResponse{}, err
	}

	if body := resp.Body(); len(body) > 0 {
		if err = json.Unmarshal(body, &result); err != nil {
			return models.SyncResponse{}, fmt.Errorf("decode sync response: %w", err)
		}
	}

	return result, nil
}

// GetVersion implements [ServerAdapter] with GET /api/entities/{key}/version.
func (h *httpServerAdapter) GetVersion(ctx context.Context, key string) (int64, error) {
	var result models.VersionResponse

	resp, err := h.authedRequest(ctx).
		SetPathParam("key", key).
		SetResult(&result).
		Get(versionPath)
	if err != nil {
		return 0, fmt.Errorf("%w: version request: %w", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return 0, err
	}

	return result.Version, nil
}

// Fetch implements [ServerAdapter] with GET /api/entities/{key}.
func (h *httpServerAdapter) Fetch(ctx context.Context, key string) (models.EntityRecord, error) {
	resp, err := h.authedRequest(ctx).
		SetPathParam("key", key).
		Get(entityPath)
	if err != nil {
		return models.EntityRecord{}, fmt.Errorf("%w: fetch request: %w", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.EntityRecord{}, err
	}

	var entity models.EntityRecord
	if err = json.Unmarshal(resp.Body(), &entity); err != nil {
		return models.EntityRecord{}, fmt.Errorf("decode fetch response: %w", err)
	}

	return entity, nil
}

// Ping implements [ServerAdapter] with GET /api/ping.
func (h *httpServerAdapter) Ping(ctx context.Context) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader(models.HeaderTraceID, h.ids.Generate()).
		Get(pingPath)
	if err != nil {
		return fmt.Errorf("%w: ping request: %w", ErrTransport, err)
	}

	return mapHTTPError(resp)
}

func (h *httpServerAdapter) authedRequest(ctx context.Context) *resty.Request {
	traceID := h.ids.Generate()
	logger.FromContext(ctx).Debug().
		Str("func", "httpServerAdapter.authedRequest").
		Str("trace_id", traceID).
		Msg("sending request")

	req := h.client.R().
		SetContext(ctx).
		SetHeader(models.HeaderTraceID, traceID)
	if h.token != "" {
		req.SetHeader("Authorization", "Bearer "+h.token)
	}
	return req
}
