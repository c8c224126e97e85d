package fx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/dialogbot/core/services"
)

func serve(t *testing.T, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v6/key/latest/USD", r.URL.Path)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New("key", srv.URL+"/v6", services.NewCaller(services.WithHTTPClient(srv.Client())))
}

func TestLatest(t *testing.T) {
	c := serve(t, `{"result":"success","conversion_rates":{"USD":1,"RUB":80,"EUR":0.8}}`)
	r, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 80.0, r.USDRUB, 1e-9)
	assert.InDelta(t, 100.0, r.EURRUB, 1e-9)
	assert.InDelta(t, 1.25, r.EURUSD, 1e-9)
}

func TestLatestErrors(t *testing.T) {
	for name, body := range map[string]string{
		"api error":   `{"result":"error","error-type":"invalid-key"}`,
		"missing rub": `{"result":"success","conversion_rates":{"EUR":0.9}}`,
		"missing eur": `{"result":"success","conversion_rates":{"RUB":90}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := serve(t, body).Latest(context.Background())
			assert.Equal(t, services.KindPayload, services.KindOf(err))
		})
	}
}
