// Package app wires the browse gateway and routes API Gateway requests.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/handler"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/logging"
)

// Options configures the HTTP surface of an App.
type Options struct {
	// AllowOrigin is returned in Access-Control-Allow-Origin.
	AllowOrigin string
	// OriginSecret, when set, must match the X-Origin-Verify header.
	OriginSecret string
}

// App holds the dependencies for the Lambda function.
type App struct {
	browseHandler *handler.BrowseHandler
	allowOrigin   string
	originSecret  string
}

// New creates an App serving listings from browser. A nil browser makes
// every browse request fail with a configuration error.
func New(browser handler.Browser, opts Options) *App {
	if opts.AllowOrigin == "" {
		opts.AllowOrigin = "http://localhost:3000"
	}
	return &App{
		browseHandler: handler.NewBrowseHandler(browser),
		allowOrigin:   opts.AllowOrigin,
		originSecret:  opts.OriginSecret,
	}
}

// HandleRequest routes API Gateway requests to the appropriate handler.
func (app *App) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestID := handler.Header(req, "X-Request-ID")
	if requestID == "" {
		requestID = req.RequestContext.RequestID
	}
	if requestID == "" {
		requestID = logging.NewRequestID()
	}
	ctx = logging.WithRequestID(ctx, requestID)

	resp, err := app.route(ctx, req)
	if err != nil {
		logging.WithContext(ctx).Error("handler error", zap.Error(err))
		resp = events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"error":"Internal server error"}`,
		}
	}
	resp = app.corsResponse(resp)
	resp.Headers["X-Request-ID"] = requestID
	return resp, nil
}

func (app *App) route(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	path := req.Path
	method := req.HTTPMethod
	logging.WithContext(ctx).Debug("request", zap.String("method", method), zap.String("path", path))

	// CORS preflight
	if method == http.MethodOptions {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent}, nil
	}

	// Strip /api prefix if present (CloudFront proxying)
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		path = strings.TrimPrefix(path, "/api")
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	if path == "/health" && method == http.MethodGet {
		return handler.Health(ctx, req)
	}

	// Only CloudFront knows the origin secret.
	if app.originSecret != "" && handler.Header(req, "X-Origin-Verify") != app.originSecret {
		logging.WithContext(ctx).Warn("missing or invalid X-Origin-Verify header")
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusForbidden,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"error":"Forbidden"}`,
		}, nil
	}

	if path == "/browse" {
		return app.browseHandler.Browse(ctx, req)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusNotFound,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       fmt.Sprintf(`{"error":"Not found","message":%q}`, method+" "+path),
	}, nil
}

// corsResponse adds CORS headers to an API Gateway response.
func (app *App) corsResponse(resp events.APIGatewayProxyResponse) events.APIGatewayProxyResponse {
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	resp.Headers["Access-Control-Allow-Origin"] = app.allowOrigin
	resp.Headers["Access-Control-Allow-Methods"] = "GET,OPTIONS"
	resp.Headers["Access-Control-Allow-Headers"] = "Content-Type,X-Request-ID"
	resp.Headers["Access-Control-Expose-Headers"] = "X-Cache,X-Request-ID"
	resp.Headers["Vary"] = "Origin"
	return resp
}
