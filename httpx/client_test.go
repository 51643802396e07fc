package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clinia/topicbridge/errorx"
	"github.com/stretchr/testify/suite"
)

type HTTPClientTestSuite struct {
	suite.Suite
	testServer *httptest.Server
	client     *Client
}

func TestHTTPClientTestSuite(t *testing.T) {
	suite.Run(t, new(HTTPClientTestSuite))
}

func (s *HTTPClientTestSuite) SetupSuite() {
	s.testServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			w.Header().Set("X-Content-Type", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			_, _ = w.Write(body)
			return
		}

		for key, values := range r.URL.Query() {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}

		fmt.Fprint(w, "test server")
	}))

	s.client = NewHTTPClient()
}

func (s *HTTPClientTestSuite) TearDownSuite() {
	s.testServer.Close()
}

func (s *HTTPClientTestSuite) TestMakeHTTPRequest_InvalidRequest() {
	ctx := context.Background()

	_, err := s.client.MakeHTTPRequest(ctx, &Request{
		URL: s.testServer.URL,
	})

	s.Assert().True(errorx.IsInvalidArgumentError(err))
}

func (s *HTTPClientTestSuite) TestMakeHTTPRequest_SuccessfulHTTPRequest() {
	ctx := context.Background()

	request := &Request{
		Method: http.MethodGet,
		URL:    s.testServer.URL,
		QueryParameters: map[string][]string{
			"test": {"test1", "test2"},
		},
	}

	response, err := s.client.MakeHTTPRequest(ctx, request)
	if err != nil {
		s.FailNow("unable to make http request to the test server: ", err)
		return
	}

	s.Assert().Equal(http.StatusOK, response.StatusCode)
	s.Assert().Equal("test server", string(response.Body))
	s.Assert().Equal(len(response.Headers.Get("test")), len(request.QueryParameters.Get("test")))
}

func (s *HTTPClientTestSuite) TestMakeHTTPRequest_JSONBody() {
	ctx := context.Background()

	response, err := s.client.MakeHTTPRequest(ctx, &Request{
		Method: http.MethodPut,
		URL:    s.testServer.URL,
		Body:   map[string]any{"name": "orders"},
	})
	s.Require().NoError(err)

	s.Assert().Equal("application/json", response.Headers.Get("X-Content-Type"))
	s.Assert().JSONEq(`{"name":"orders"}`, string(response.Body))
}

func (s *HTTPClientTestSuite) TestMakeHTTPRequest_UnreachableServer() {
	ctx := context.Background()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := s.client.MakeHTTPRequest(ctx, &Request{
		Method: http.MethodGet,
		URL:    url,
	})
	s.Assert().True(errorx.IsUnavailableError(err))
}
