package telegram

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubTransport struct {
	errs  []error
	calls int
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	rec := httptest.NewRecorder()
	rec.WriteHeader(http.StatusOK)
	return rec.Result(), nil
}

func TestRetryTransportRetriesDialErrors(t *testing.T) {
	stub := &stubTransport{errs: []error{&net.OpError{Op: "dial", Err: errors.New("refused")}}}
	rt := &retryTransport{base: stub, maxRetries: 2, backoff: time.Millisecond}

	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/bot/x", strings.NewReader("a=b"))
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, stub.calls)
}

func TestRetryTransportStopsOnPermanentError(t *testing.T) {
	stub := &stubTransport{errs: []error{errors.New("tls: bad certificate")}}
	rt := &retryTransport{base: stub, maxRetries: 3, backoff: time.Millisecond}
	req, err := http.NewRequest(http.MethodGet, "https://api.telegram.org", nil)
	require.NoError(t, err)
	_, err = rt.RoundTrip(req)
	require.Error(t, err)
	require.Equal(t, 1, stub.calls)
}

func TestBuildHTTPClientCoversLongPoll(t *testing.T) {
	client := BuildHTTPClient(HTTPClientOptions{Timeout: 10 * time.Second, LongPoll: 25 * time.Second})
	require.Greater(t, client.Timeout, 25*time.Second)
	rt, ok := client.Transport.(*retryTransport)
	require.True(t, ok)
	tr, ok := rt.base.(*http.Transport)
	require.True(t, ok)
	require.Equal(t, 30*time.Second, tr.ResponseHeaderTimeout)
}
