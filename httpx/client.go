package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"time"

	"github.com/clinia/topicbridge/errorx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
)

// MakeHTTPRequest sends input and reads the full response. Transport failures
// are Unavailable; non-2xx statuses are returned as a Response.
func (c *Client) MakeHTTPRequest(ctx context.Context, input *Request) (*Response, error) {
	if err := input.Validate(); err != nil {
		return nil, errorx.InvalidArgumentErrorf("invalid http request: %s", err.Error())
	}

	var body io.Reader
	if input.Body != nil {
		requestBodyBytes, err := json.Marshal(input.Body)
		if err != nil {
			return nil, errorx.InvalidArgumentErrorf("failed to encode request body: %s", err.Error())
		}
		body = bytes.NewBuffer(requestBodyBytes)
	}

	ctx = httptrace.WithClientTrace(ctx, otelhttptrace.NewClientTrace(ctx))
	httpRequest, err := http.NewRequestWithContext(ctx, input.Method, input.URL, body)
	if err != nil {
		return nil, errorx.InvalidArgumentErrorf("failed to build http request: %s", err.Error())
	}

	buildQueryParams(httpRequest, input.QueryParameters)

	httpRequest.Header = c.headers.Clone()
	if httpRequest.Header == nil {
		httpRequest.Header = http.Header{}
	}
	for k, v := range input.Headers {
		httpRequest.Header[k] = v
	}
	if input.Body != nil && httpRequest.Header.Get("Content-Type") == "" {
		httpRequest.Header.Set("Content-Type", "application/json")
	}

	startTime := time.Now()

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, errorx.UnavailableErrorf("http request failed: %s", err.Error()).WithOriginalError(err)
	}

	defer httpResponse.Body.Close()

	endTime := time.Since(startTime)

	respBody, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, errorx.UnavailableErrorf("failed to read response body: %s", err.Error()).WithOriginalError(err)
	}

	return &Response{
		StatusCode: httpResponse.StatusCode,
		Body:       respBody,
		Headers:    httpResponse.Header,
		Duration:   endTime,
	}, nil
}

func buildQueryParams(httpRequest *http.Request, params url.Values) {
	if len(params) > 0 {
		requestQueryParams := httpRequest.URL.Query()

		for queryParamKey, queryParamValues := range params {
			for _, queryParamValue := range queryParamValues {
				requestQueryParams.Add(queryParamKey, queryParamValue)
			}
		}

		httpRequest.URL.RawQuery = requestQueryParams.Encode()
	}
}
