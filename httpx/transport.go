package httpx

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
)

const httpClientDefaultTimeout = 60 * time.Second

var validate = validator.New(validator.WithRequiredStructEnabled())

// Client sends JSON requests and buffers the responses.
type Client struct {
	httpClient *http.Client
	transport  *http.Transport
	headers    http.Header
}

type Option func(*Client)

// Request is a single outgoing call. Body is encoded as JSON when set.
type Request struct {
	Method          string `validate:"required"`
	URL             string `validate:"required,url"`
	Body            any
	Headers         http.Header
	QueryParameters url.Values
}

func (r *Request) Validate() error {
	return validate.Struct(r)
}

type Response struct {
	StatusCode int `validate:"required"`
	Body       []byte
	Headers    http.Header
	Duration   time.Duration
}

func (r *Response) Validate() error {
	return validate.Struct(r)
}

func GetDefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: httpClientDefaultTimeout}
}

// NewHTTPClient returns a client with the default timeout and a fresh transport.
func NewHTTPClient() *Client {
	return NewClientWithOptions()
}

func NewClientWithOptions(options ...Option) *Client {
	c := &Client{
		httpClient: GetDefaultHTTPClient(),
		transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		},
		headers: http.Header{},
	}
	for _, opt := range options {
		opt(c)
	}
	c.httpClient.Transport = c.transport

	return c
}

// WithTimeout bounds the whole exchange, body read included. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithSkipTLSVerification() Option {
	return func(c *Client) {
		c.transport.TLSClientConfig.InsecureSkipVerify = true
	}
}

// WithHeader is sent on every request unless the request sets the same key.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}
