package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req predictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"chest pain", "shortness of breath"}, req.Symptoms)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"disease":"Hypertension","doctor_recommendation":{"specialist":"Cardiology, Internal Medicine"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second)
	prediction, err := c.Predict(context.Background(), []string{"chest pain", "shortness of breath"})
	require.NoError(t, err)
	assert.Equal(t, "Hypertension", prediction.Disease)
	assert.Equal(t, "Cardiology, Internal Medicine", prediction.DoctorRecommendation.Specialist)
}

func TestPredictNon200IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second)
	_, err := c.Predict(context.Background(), []string{"fever"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPredictConnectionRefusedIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Predict(context.Background(), []string{"fever"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPredictNoURLConfigured(t *testing.T) {
	c := New("", time.Second)
	_, err := c.Predict(context.Background(), []string{"fever"})
	assert.ErrorIs(t, err, ErrUnavailable)
}
