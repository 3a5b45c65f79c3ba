package goplus

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/safebot/internal/chain"
	"github.com/yolodolo42/safebot/internal/testutil"
)

const weth = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"

func TestTokenSecurity(t *testing.T) {
	t.Run("evm chain uses path parameter", func(t *testing.T) {
		srv := testutil.NewJSONServer(t, func(r *http.Request) (int, any) {
			return http.StatusOK, map[string]any{
				"code":    1,
				"message": "OK",
				"result": map[string]any{
					weth: map[string]any{"is_open_source": "1", "token_symbol": "WETH"},
				},
			}
		})
		c := NewClient(srv.URL)

		resp, err := c.TokenSecurity(context.Background(), "1", []string{weth})
		require.NoError(t, err)
		require.NoError(t, resp.Err())

		reqs := srv.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, "/token_security/1", reqs[0].URL.Path)
		assert.Equal(t, weth, reqs[0].URL.Query().Get("contract_addresses"))
		assert.Equal(t, "application/json", reqs[0].Header.Get("Accept"))

		require.Contains(t, resp.Tokens, weth)
		assert.JSONEq(t, `{"is_open_source":"1","token_symbol":"WETH"}`, string(resp.Tokens[weth]))
	})

	t.Run("solana uses dedicated endpoint", func(t *testing.T) {
		srv := testutil.NewJSONServer(t, func(r *http.Request) (int, any) {
			return http.StatusOK, `{"code":1,"message":"OK","result":{}}`
		})
		c := NewClient(srv.URL + "/")

		resp, err := c.TokenSecurity(context.Background(), "solana", []string{"So11111111111111111111111111111111111111112"})
		require.NoError(t, err)
		assert.False(t, resp.HasResult())
		assert.Equal(t, "/solana/token_security", srv.Requests()[0].URL.Path)
	})

	t.Run("batch joins addresses", func(t *testing.T) {
		srv := testutil.NewJSONServer(t, func(r *http.Request) (int, any) {
			return http.StatusOK, `{"code":1,"result":{}}`
		})
		c := NewClient(srv.URL)

		_, err := c.TokenSecurity(context.Background(), "56", []string{"0xa", "0xb"})
		require.NoError(t, err)
		assert.Equal(t, "0xa,0xb", srv.Requests()[0].URL.Query().Get("contract_addresses"))
	})

	t.Run("application error is left to the caller", func(t *testing.T) {
		srv := testutil.NewJSONServer(t, func(r *http.Request) (int, any) {
			return http.StatusOK, `{"code":2007,"message":"not found","result":null}`
		})
		c := NewClient(srv.URL)

		resp, err := c.TokenSecurity(context.Background(), "solana", []string{"x"})
		require.NoError(t, err)

		var qe *QueryError
		require.ErrorAs(t, resp.Err(), &qe)
		assert.Equal(t, 2007, qe.Code)
		assert.Equal(t, "not found", qe.Message)
		assert.ErrorIs(t, resp.Err(), ErrQueryFailed)
	})

	t.Run("non-2xx is a transport error", func(t *testing.T) {
		srv := testutil.NewJSONServer(t, func(r *http.Request) (int, any) {
			return http.StatusBadGateway, "upstream down"
		})
		c := NewClient(srv.URL)

		_, err := c.TokenSecurity(context.Background(), "1", []string{weth})
		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, http.StatusBadGateway, te.StatusCode)
		assert.Equal(t, EndpointTokenSecurity, te.Endpoint)
		assert.Contains(t, err.Error(), "upstream down")
	})

	t.Run("undecodable body is a transport error", func(t *testing.T) {
		srv := testutil.NewJSONServer(t, func(r *http.Request) (int, any) {
			return http.StatusOK, "<html>"
		})
		c := NewClient(srv.URL)

		_, err := c.TokenSecurity(context.Background(), "1", []string{weth})
		var te *TransportError
		assert.ErrorAs(t, err, &te)
	})

	t.Run("timeout is a transport error", func(t *testing.T) {
		srv := testutil.NewJSONServer(t, func(r *http.Request) (int, any) {
			time.Sleep(200 * time.Millisecond)
			return http.StatusOK, `{"code":1}`
		})
		c := NewClient(srv.URL)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := c.TokenSecurity(ctx, "1", []string{weth})
		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})

	t.Run("timeout option leaves a shared client untouched", func(t *testing.T) {
		srv := testutil.NewJSONServer(t, func(r *http.Request) (int, any) {
			return http.StatusOK, `{"code":1,"message":"OK","result":{}}`
		})
		shared := &http.Client{Timeout: time.Minute}
		c := NewClient(srv.URL, WithHTTPClient(shared), WithTimeout(5*time.Second))

		_, err := c.TokenSecurity(context.Background(), "1", []string{weth})
		require.NoError(t, err)
		assert.Equal(t, time.Minute, shared.Timeout)
		assert.Equal(t, 5*time.Second, c.client.Timeout)
		assert.NotSame(t, shared, c.client)
	})

	t.Run("requires an address", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1")
		_, err := c.TokenSecurity(context.Background(), "1", nil)
		assert.Error(t, err)
	})
}

func TestSupportedChains(t *testing.T) {
	t.Run("decodes string and numeric ids", func(t *testing.T) {
		srv := testutil.NewJSONServer(t, func(r *http.Request) (int, any) {
			return http.StatusOK, `{"code":1,"message":"OK","result":[
				{"id":"1","name":"Ethereum"},
				{"id":56,"name":"BSC"},
				{"id":"solana","name":"Solana"},
				{"name":"no id"}
			]}`
		})
		c := NewClient(srv.URL)

		chains, err := c.SupportedChains(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []chain.Chain{
			{ID: "1", Name: "Ethereum"},
			{ID: "56", Name: "BSC"},
			{ID: "solana", Name: "Solana"},
		}, chains)
		assert.Equal(t, "/supported_chains", srv.Requests()[0].URL.Path)
	})

	t.Run("error code", func(t *testing.T) {
		srv := testutil.NewJSONServer(t, func(r *http.Request) (int, any) {
			return http.StatusOK, `{"code":"4029","message":"rate limited"}`
		})
		c := NewClient(srv.URL)

		_, err := c.SupportedChains(context.Background())
		assert.ErrorIs(t, err, ErrQueryFailed)
		assert.ErrorContains(t, err, "rate limited")
	})

	t.Run("empty result", func(t *testing.T) {
		srv := testutil.NewJSONServer(t, func(r *http.Request) (int, any) {
			return http.StatusOK, `{"code":1,"result":[]}`
		})
		c := NewClient(srv.URL)

		_, err := c.SupportedChains(context.Background())
		assert.ErrorIs(t, err, ErrQueryFailed)
	})

	t.Run("satisfies chain.Source", func(t *testing.T) {
		var _ chain.Source = NewClient("")
	})
}

func TestEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{"success", "1", false},
		{"missing", "", false},
		{"zero", "0", false},
		{"failure", "2", true},
		{"not indexed", "2007", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Envelope{Code: json.Number(tt.code)}
			if tt.wantErr {
				assert.Error(t, env.Err())
			} else {
				assert.NoError(t, env.Err())
			}
		})
	}
}

func TestQueryErrorMessage(t *testing.T) {
	assert.Equal(t, "bad (code 2)", (&QueryError{Code: 2, Message: "bad"}).Error())
	assert.Equal(t, "request failed", (&QueryError{}).Error())
}
