package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/statusboard/pkg/config"
	"github.com/wonny/statusboard/pkg/httputil"
	"github.com/wonny/statusboard/pkg/logger"
)

func testClient(t *testing.T, url string) *Client {
	t.Helper()

	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
		Source: config.SourceConfig{
			HTTPTimeout: 5 * time.Second,
			MaxRetries:  1,
		},
	}
	log := logger.New(cfg)
	httpClient := httputil.New(cfg, log).WithRetry(1, 5*time.Millisecond)

	return NewClient(httpClient, log, url)
}

func TestFetch(t *testing.T) {
	body := strings.Join([]string{
		"State Name,Population,Adhar Count,Adhar Status,Cadre Count,Cadre Status,Voter Count,Voter Status,Overall Unique Mobile Count (Within State)",
		` Goa ,"1,500,000","12,345",Uploaded,,Pending,,,`,
		"Assam,,,,,,,,",
	}, "\n")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(body))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	rows, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, " Goa ", rows[0].StateName, "cells are passed through untrimmed; trimming is the pipeline's job")
	assert.Equal(t, "1,500,000", rows[0].Population)
	assert.Equal(t, "12,345", rows[0].AdharCount)
	assert.Equal(t, "Uploaded", rows[0].AdharStatus)
	assert.Equal(t, "", rows[0].CadreCount)
	assert.Equal(t, "Pending", rows[0].CadreStatus)

	assert.Equal(t, "Assam", rows[1].StateName)
	assert.Equal(t, "", rows[1].AdharCount)
}

func TestFetch_MissingColumnsDefaultToEmpty(t *testing.T) {
	// Sheet with only two of the expected columns
	body := "State Name,Population\nGoa,100\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	rows, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "Goa", rows[0].StateName)
	assert.Equal(t, "100", rows[0].Population)
	assert.Equal(t, "", rows[0].AdharCount)
	assert.Equal(t, "", rows[0].AdharStatus)
	assert.Equal(t, "", rows[0].VoterStatus)
	assert.Equal(t, "", rows[0].OverallMobileCount)
}

func TestFetch_ColumnOrderIrrelevant(t *testing.T) {
	body := "Population,State Name,Adhar Count\n500,Goa,42\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	rows, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "Goa", rows[0].StateName)
	assert.Equal(t, "500", rows[0].Population)
	assert.Equal(t, "42", rows[0].AdharCount)
}

func TestFetch_ShortMobileHeaderAccepted(t *testing.T) {
	body := "State Name,Overall Unique Mobile Count\nGoa,777\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	rows, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "777", rows[0].OverallMobileCount)
}

func TestFetch_RaggedRowsTolerated(t *testing.T) {
	body := "State Name,Population,Adhar Count\nGoa,100,42\nAssam\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	rows, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Assam", rows[1].StateName)
	assert.Equal(t, "", rows[1].Population)
	assert.Equal(t, "", rows[1].AdharCount)
}

func TestFetch_HeaderWhitespaceTrimmed(t *testing.T) {
	body := " State Name , Population \nGoa,100\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	rows, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Goa", rows[0].StateName)
}

func TestFetch_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	client := testClient(t, server.URL)

	rows, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFetch_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	_, err := client.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code")
}
