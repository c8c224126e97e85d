package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/dialogbot/core/services"
)

func TestCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Yandex-Weather-Key"))
		assert.Equal(t, "55.7558", r.URL.Query().Get("lat"))
		assert.Equal(t, "37.6176", r.URL.Query().Get("lon"))
		assert.Equal(t, "ru_RU", r.URL.Query().Get("lang"))
		_, _ = w.Write([]byte(`{"fact":{"temp":-3,"condition":"light-rain"}}`))
	}))
	defer srv.Close()

	c := New("secret", services.NewCaller(services.WithHTTPClient(srv.Client())), WithBaseURL(srv.URL))
	rep, err := c.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Москва", rep.Location)
	assert.Equal(t, -3.0, rep.Temp)
	assert.Equal(t, "Небольшой дождь 🌦", rep.Description())
}

func TestCurrentMissingFact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"now":1}`))
	}))
	defer srv.Close()

	c := New("secret", services.NewCaller(services.WithHTTPClient(srv.Client())), WithBaseURL(srv.URL))
	_, err := c.Current(context.Background())
	assert.Equal(t, services.KindPayload, services.KindOf(err))
}

func TestDescriptionUnknown(t *testing.T) {
	assert.Equal(t, "hail", Report{Condition: "hail"}.Description())
}
