package testx

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
)

// executeRequest serves req on h and records the response for inspection.
func executeRequest(req *http.Request, h http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	return rr
}

func unmarshalBody[T any](res *httptest.ResponseRecorder) T {
	var data T
	_ = json.Unmarshal(res.Body.Bytes(), &data)
	return data
}

func jsonRequest(method, url, jsonStr string) *http.Request {
	var body io.Reader
	if jsonStr != "" {
		body = bytes.NewBufferString(strings.ReplaceAll(jsonStr, "\n", ""))
	}
	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func PutJson[T any](h http.Handler, url string, jsonStr string) (*httptest.ResponseRecorder, T) {
	res := executeRequest(jsonRequest(http.MethodPut, url, jsonStr), h)
	return res, unmarshalBody[T](res)
}

func GetJson[T any](h http.Handler, url string) (*httptest.ResponseRecorder, T) {
	res := executeRequest(jsonRequest(http.MethodGet, url, ""), h)
	return res, unmarshalBody[T](res)
}

func DeleteJson[T any](h http.Handler, url string) (*httptest.ResponseRecorder, T) {
	res := executeRequest(jsonRequest(http.MethodDelete, url, ""), h)
	return res, unmarshalBody[T](res)
}

func Delete(h http.Handler, url string) *httptest.ResponseRecorder {
	return executeRequest(httptest.NewRequest(http.MethodDelete, url, nil), h)
}
