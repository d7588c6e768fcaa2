package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/adapter"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/folderpath"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/gateway"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/logging"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/metrics"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/model"
)

// SharedCacheControl lets CDNs keep a listing for 30 minutes while
// browsers always revalidate.
const SharedCacheControl = "public, max-age=0, s-maxage=1800"

// Browser lists the children of a logical folder path.
type Browser interface {
	Browse(ctx context.Context, path string, ct model.ContentType) (*gateway.Listing, error)
}

// BrowseHandler serves GET /browse.
type BrowseHandler struct {
	browser Browser
}

// NewBrowseHandler creates a new BrowseHandler. A nil browser answers every
// request with a configuration error.
func NewBrowseHandler(browser Browser) *BrowseHandler {
	return &BrowseHandler{browser: browser}
}

// Browse handles GET /browse?path=<path>&type=folders|files.
func (h *BrowseHandler) Browse(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()
	typeParam := req.QueryStringParameters["type"]
	resp := h.browse(ctx, req)
	metrics.RecordBrowse(typeParam, resp.StatusCode, time.Since(start))
	return resp, nil
}

func (h *BrowseHandler) browse(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	noStore := map[string]string{"Cache-Control": "no-store"}

	if req.HTTPMethod != http.MethodGet {
		return jsonResponse(http.StatusMethodNotAllowed, model.ErrorResponse{
			Error:   "Method not allowed",
			Message: req.HTTPMethod + " is not supported",
		}, map[string]string{"Allow": http.MethodGet, "Cache-Control": "no-store"})
	}

	ct, err := model.ParseContentType(req.QueryStringParameters["type"])
	if err != nil {
		return jsonResponse(http.StatusBadRequest, model.ErrorResponse{
			Error:   "Invalid type",
			Message: err.Error(),
		}, noStore)
	}

	path := folderpath.Canonical(req.QueryStringParameters["path"])
	log := logging.WithContext(ctx).With(zap.String("path", path), zap.String("type", string(ct)))

	if h.browser == nil {
		log.Error("browse handler has no gateway")
		return jsonResponse(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "Server configuration error",
			Message: adapter.ErrConfiguration.Error(),
		}, noStore)
	}

	listing, err := h.browser.Browse(ctx, path, ct)
	if err != nil {
		var notFound *adapter.PathNotFoundError
		switch {
		case errors.As(err, &notFound):
			log.Info("path not found", zap.String("segment", notFound.Segment))
			return jsonResponse(http.StatusNotFound, model.ErrorResponse{
				Error:   "Path not found",
				Message: notFound.Error(),
				Path:    path,
				Segment: notFound.Segment,
			}, noStore)
		case errors.Is(err, adapter.ErrConfiguration):
			log.Error("gateway misconfigured", zap.Error(err))
			return jsonResponse(http.StatusInternalServerError, model.ErrorResponse{
				Error:   "Server configuration error",
				Message: err.Error(),
			}, noStore)
		default:
			log.Error("browse failed", zap.Error(err))
			return jsonResponse(http.StatusInternalServerError, model.ErrorResponse{
				Error:   "Failed to fetch listing",
				Message: err.Error(),
			}, noStore)
		}
	}

	xCache := "MISS"
	if listing.Cached {
		xCache = "HIT"
	}
	items := listing.Items
	if items == nil {
		items = []model.Item{}
	}
	return jsonResponse(http.StatusOK, model.BrowseResponse{
		Path:      listing.Path,
		Type:      listing.Type,
		Data:      items,
		Cached:    listing.Cached,
		Timestamp: listing.FetchedAt.UnixMilli(),
	}, map[string]string{
		"X-Cache":       xCache,
		"Cache-Control": SharedCacheControl,
	})
}

// Health handles GET /health.
func Health(_ context.Context, _ events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return jsonResponse(http.StatusOK, map[string]string{"status": "ok"}, map[string]string{"Cache-Control": "no-store"}), nil
}
