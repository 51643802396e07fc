package topicapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clinia/topicbridge/bridge"
	"github.com/clinia/topicbridge/errorx"
	"github.com/clinia/topicbridge/httpx"
)

// Client calls a running topicbridge server.
type Client struct {
	endpoint string
	http     *httpx.Client
}

func NewClient(endpoint string, opts ...httpx.Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errorx.InvalidArgumentErrorf("invalid endpoint %q", endpoint)
	}

	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		http:     httpx.NewClientWithOptions(opts...),
	}, nil
}

func (c *Client) CreateTopic(ctx context.Context, body CreateTopicBody, timeout time.Duration) error {
	_, err := c.do(ctx, http.MethodPut, TopicsPath, body, timeoutQuery(timeout))
	return err
}

// ListTopics lists the topics, the broker's internal topics only when includeInternal is set.
func (c *Client) ListTopics(ctx context.Context, timeout time.Duration, includeInternal bool) (bridge.Topics, error) {
	q := timeoutQuery(timeout)
	if includeInternal {
		q.Set(IncludeInternalQueryKey, "true")
	}
	res, err := c.do(ctx, http.MethodGet, TopicsPath, nil, q)
	if err != nil {
		return nil, err
	}

	var topics bridge.Topics
	if err := json.Unmarshal(res.Body, &topics); err != nil {
		return nil, errorx.InternalErrorf("failed to decode topics: %s", err.Error())
	}
	return topics, nil
}

func (c *Client) DeleteTopic(ctx context.Context, name string, timeout time.Duration) error {
	_, err := c.do(ctx, http.MethodDelete, TopicsPath+"/"+url.PathEscape(name), nil, timeoutQuery(timeout))
	return err
}

func timeoutQuery(timeout time.Duration) url.Values {
	q := url.Values{}
	if timeout > 0 {
		q.Set(TimeoutQueryKey, timeout.String())
	}
	return q
}

func (c *Client) do(ctx context.Context, method, path string, body any, query url.Values) (*httpx.Response, error) {
	req := &httpx.Request{
		Method:          method,
		URL:             c.endpoint + path,
		Body:            body,
		QueryParameters: query,
	}

	res, err := c.http.MakeHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return nil, httpx.DecodeError(res)
	}
	return res, nil
}
