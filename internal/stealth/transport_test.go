package stealth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportFillsMissingFingerprint(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	client := &http.Client{Transport: &StealthTransport{Fingerprint: NewFingerprintPool()}}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.NotEmpty(t, got.Get("User-Agent"))
	assert.Contains(t, got.Get("Accept-Language"), "id")
}

func TestTransportKeepsStrategyHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	client := &http.Client{Transport: &StealthTransport{Fingerprint: NewFingerprintPool()}}

	req, err := http.NewRequest("POST", srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 14) Mobile")
	req.Header.Set("X-Requested-With", "com.tokopedia.tokopedia")
	req.Header.Set("Accept-Language", "id-ID")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Mozilla/5.0 (Linux; Android 14) Mobile", got.Get("User-Agent"),
		"gateway identity set by a strategy must survive the fingerprint pass")
	assert.Equal(t, "com.tokopedia.tokopedia", got.Get("X-Requested-With"))
	assert.Equal(t, "id-ID", got.Get("Accept-Language"))
}

func TestFingerprintPoolRotates(t *testing.T) {
	pool := NewFingerprintPool()
	first := pool.Next()
	second := pool.Next()
	assert.NotEqual(t, first.UserAgent, second.UserAgent)
}

func TestHumanDelayProfiles(t *testing.T) {
	cautious := NewHumanDelay(ProfileCautious)
	aggressive := NewHumanDelay(ProfileAggressive)
	assert.Greater(t, cautious.MinDelay, aggressive.MaxDelay)

	for i := 0; i < 50; i++ {
		d := aggressive.RequestDelay()
		assert.GreaterOrEqual(t, d, aggressive.MinDelay)
		assert.LessOrEqual(t, d, aggressive.MaxDelay)
	}
}
