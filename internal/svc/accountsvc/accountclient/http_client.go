package accountclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	context_ "github.com/reelspro/reelspro/internal/infra/context"
	"github.com/reelspro/reelspro/internal/infra/logging"
	http_ "github.com/reelspro/reelspro/internal/infra/transport/http"
	"github.com/reelspro/reelspro/internal/svc/accountsvc"
)

// Bounds on how much of a reply is read.
const (
	maxErrorBody   = 1 << 14
	maxSuccessBody = 1 << 16
)

// HTTPClientConfig holds configuration for the HTTP account client.
type HTTPClientConfig struct {
	// BaseURL is the address of the account service
	BaseURL string `env:"BASE_URL" default:"http://localhost:8080"`
}

// ResponseError is a non-2xx reply from the account service. Message holds the
// reply's error field and is empty when the reply carried none.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	return fmt.Sprintf("account service: %d: %s", e.StatusCode, msg)
}

// HTTPClient implements AccountClient over HTTP.
type HTTPClient struct {
	httpClient *http.Client
	log        logging.Logger
	cfg        HTTPClientConfig
}

var _ AccountClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTPClient with the given configuration.
// If httpClient is nil, http.DefaultClient will be used.
func NewHTTPClient(
	cfg HTTPClientConfig,
	httpClient *http.Client,
) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		httpClient: httpClient,
		log:        logging.GetLogger("svc.accountsvc.http_client"),
		cfg:        cfg,
	}
}

// Register implements AccountClient.Register by posting to the registration endpoint.
func (c *HTTPClient) Register(
	ctx context.Context,
	req accountsvc.RegisterRequest,
) (_ accountsvc.RegisterResponse, err error) {
	log := c.log.With(logging.Group("account", "email", req.Email))

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "register request failed", logging.Err(err))
		} else {
			log.DebugContext(ctx, "register request succeeded")
		}
	}()

	body, err := json.Marshal(req)
	if err != nil {
		return accountsvc.RegisterResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + accountsvc.RegisterPath

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return accountsvc.RegisterResponse{}, fmt.Errorf("new request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		httpReq.Header.Set(http_.TraceIDHeader, traceID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return accountsvc.RegisterResponse{}, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return accountsvc.RegisterResponse{}, responseError(resp)
	}

	// Any 2xx is a success; the body is optional.
	var out accountsvc.RegisterResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxSuccessBody)).Decode(&out); err != nil {
		if !errors.Is(err, io.EOF) {
			log.WarnContext(ctx, "ignoring undecodable register response body", logging.Err(err))
		}

		return accountsvc.RegisterResponse{}, nil
	}

	return out, nil
}

func responseError(resp *http.Response) *ResponseError {
	rerr := &ResponseError{StatusCode: resp.StatusCode}

	var body http_.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err == nil {
		rerr.Message = body.Error
	}

	return rerr
}
