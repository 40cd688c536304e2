package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/drainwatch/drainwatch/service/registry"
	"github.com/drainwatch/drainwatch/service/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWallet = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"

func TestAnalyze_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/analyze", r.URL.Path)
		assert.Equal(t, testWallet, r.URL.Query().Get("address"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "true", r.URL.Query().Get("experimental"))

		json.NewEncoder(w).Encode(risk.Report{
			WalletAddress: testWallet,
			OverallRisk:   95,
			Severity:      risk.SeverityDrained,
		})
	}))
	defer server.Close()

	cl := NewClient(server.URL, nil, nil)
	report, err := cl.Analyze(context.Background(), testWallet, AnalyzeOptions{Limit: 25, Experimental: true})
	require.NoError(t, err)
	assert.Equal(t, testWallet, report.WalletAddress)
	assert.Equal(t, risk.SeverityDrained, report.Severity)
}

func TestAnalyze_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid wallet address"})
	}))
	defer server.Close()

	cl := NewClient(server.URL, nil, nil)
	_, err := cl.Analyze(context.Background(), "junk", AnalyzeOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid wallet address")
}

func TestGetReport_Found(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/report/"+testWallet, r.URL.Path)
		json.NewEncoder(w).Encode(registry.DrainerReport{
			DrainerAddress: testWallet,
			ReportCount:    4,
		})
	}))
	defer server.Close()

	cl := NewClient(server.URL, nil, nil)
	report, err := cl.GetReport(context.Background(), testWallet)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, uint32(4), report.ReportCount)
}

func TestGetReport_NotReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("null"))
	}))
	defer server.Close()

	cl := NewClient(server.URL, nil, nil)
	report, err := cl.GetReport(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Nil(t, report, "a null body means the address was never reported")
}

func TestSubmitReport_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/report", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, testWallet, body["drainer_address"])
		assert.Equal(t, float64(5_000_000_000), body["amount_stolen"])

		json.NewEncoder(w).Encode(map[string]string{"signature": "FakeSig"})
	}))
	defer server.Close()

	cl := NewClient(server.URL, nil, nil)
	amount := uint64(5_000_000_000)
	sig, err := cl.SubmitReport(context.Background(), testWallet, &amount)
	require.NoError(t, err)
	assert.Equal(t, "FakeSig", sig)
}

func TestSubmitReport_ErrorPropagated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "cannot report your own wallet"})
	}))
	defer server.Close()

	cl := NewClient(server.URL, nil, nil)
	_, err := cl.SubmitReport(context.Background(), testWallet, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot report your own wallet")
}
