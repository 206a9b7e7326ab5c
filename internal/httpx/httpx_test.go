package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	rec := NewRecorder(httptest.NewRecorder())
	assert.Equal(t, http.StatusOK, rec.Code())

	rec.WriteHeader(http.StatusForbidden)
	_, err := rec.Write([]byte(strings.Repeat("x", 600)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code())
	assert.Equal(t, 600, rec.Bytes)
	assert.Len(t, rec.ErrBody, maxErrBody)

	ok := NewRecorder(httptest.NewRecorder())
	_, _ = ok.Write([]byte("fine"))
	assert.Equal(t, http.StatusOK, ok.Status)
	assert.Empty(t, ok.ErrBody)
}

func TestSafeErrMsg(t *testing.T) {
	assert.Empty(t, SafeErrMsg(nil))
	assert.Equal(t, "server error: 500 boom", SafeErrMsg(errors.New("server error: 500\n  boom\n")))
	long := SafeErrMsg(errors.New(strings.Repeat("a", 1000)))
	assert.Len(t, long, maxErrMsg+3)
}

func TestReadJSON(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a": 1}`))
	require.NoError(t, ReadJSON(r, &v))
	assert.Equal(t, 1, v.A)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{\"a\": 1}\n"))
	require.NoError(t, ReadJSON(r, &v), "trailing whitespace is fine")

	for _, body := range []string{`{"a": 1} {"a": 2}`, `{"a": 1}}`, `{"a": 1}]`, `{"a": 1} x`} {
		r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		assert.Error(t, ReadJSON(r, &v), body)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a": "x"}`))
	assert.Error(t, ReadJSON(r, &v))
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusBadGateway, "decision failed")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.JSONEq(t, `{"error": "decision failed"}`, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}
