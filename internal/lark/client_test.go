package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/safebot/internal/testutil"
)

type larkServer struct {
	*testutil.JSONServer

	mu        sync.Mutex
	tokens    int
	messages  []map[string]string
	auths     []string
	sendCode  int
	tokenCode int
	sendFail  int
}

func newLarkServer(t *testing.T) *larkServer {
	t.Helper()
	ls := &larkServer{}
	ls.JSONServer = testutil.NewJSONServer(t, func(r *http.Request) (int, any) {
		ls.mu.Lock()
		defer ls.mu.Unlock()

		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)

		switch r.URL.Path {
		case "/open-apis/auth/v3/tenant_access_token/internal":
			if ls.tokenCode != 0 {
				return http.StatusOK, map[string]any{"code": ls.tokenCode, "msg": "app not found"}
			}
			ls.tokens++
			return http.StatusOK, map[string]any{
				"code":                0,
				"tenant_access_token": fmt.Sprintf("t-%s-%d", body["app_id"], ls.tokens),
				"expire":              7200,
			}
		case "/open-apis/im/v1/messages":
			if r.URL.Query().Get("receive_id_type") != "chat_id" {
				return http.StatusBadRequest, map[string]any{"code": 1, "msg": "bad receive_id_type"}
			}
			ls.auths = append(ls.auths, r.Header.Get("Authorization"))
			ls.messages = append(ls.messages, body)
			if ls.sendFail != 0 {
				return ls.sendFail, map[string]any{"error": "upstream unavailable"}
			}
			if ls.sendCode != 0 {
				return http.StatusOK, map[string]any{"code": ls.sendCode, "msg": "failed"}
			}
			return http.StatusOK, map[string]any{"code": 0, "msg": "success"}
		}
		return http.StatusNotFound, nil
	})
	return ls
}

func (ls *larkServer) sent() ([]map[string]string, []string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return append([]map[string]string(nil), ls.messages...), append([]string(nil), ls.auths...)
}

func (ls *larkServer) tokenCalls() int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.tokens
}

func (ls *larkServer) setCodes(token, send int) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.tokenCode, ls.sendCode = token, send
}

func (ls *larkServer) failSends(status int) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.sendFail = status
}

func TestClient_SendText(t *testing.T) {
	srv := newLarkServer(t)
	c := New("cli_app", "secret", srv.URL)

	require.NoError(t, c.SendText(context.Background(), "oc_chat", "hello"))

	messages, auths := srv.sent()
	require.Len(t, messages, 1)
	msg := messages[0]
	assert.Equal(t, "oc_chat", msg["receive_id"])
	assert.Equal(t, MsgTypeText, msg["msg_type"])
	assert.JSONEq(t, `{"text":"hello"}`, msg["content"])
	assert.Equal(t, "Bearer t-cli_app-1", auths[0])
}

func TestClient_SendCard(t *testing.T) {
	srv := newLarkServer(t)
	c := New("cli_app", "secret", srv.URL)

	card := json.RawMessage(`{"header":{"title":{"tag":"plain_text","content":"x"}},"elements":[]}`)
	require.NoError(t, c.SendCard(context.Background(), "oc_chat", card))

	messages, _ := srv.sent()
	require.Len(t, messages, 1)
	assert.Equal(t, MsgTypeInteractive, messages[0]["msg_type"])
	assert.JSONEq(t, string(card), messages[0]["content"])
}

func TestClient_TenantToken(t *testing.T) {
	t.Run("token is reused until close to expiry", func(t *testing.T) {
		srv := newLarkServer(t)
		clock := testutil.NewClock()
		c := New("cli_app", "secret", srv.URL, WithClock(clock.Now))
		ctx := context.Background()

		require.NoError(t, c.SendText(ctx, "oc", "a"))
		require.NoError(t, c.SendText(ctx, "oc", "b"))
		assert.Equal(t, 1, srv.tokenCalls())

		clock.Advance(2*time.Hour - 30*time.Second)
		require.NoError(t, c.SendText(ctx, "oc", "c"))
		assert.Equal(t, 2, srv.tokenCalls())
	})

	t.Run("token error stops the send", func(t *testing.T) {
		srv := newLarkServer(t)
		srv.setCodes(10003, 0)
		c := New("cli_app", "secret", srv.URL)

		require.Error(t, c.SendText(context.Background(), "oc", "a"))
		messages, _ := srv.sent()
		assert.Empty(t, messages)
	})

	t.Run("invalid token code forces a refresh", func(t *testing.T) {
		srv := newLarkServer(t)
		c := New("cli_app", "secret", srv.URL)
		ctx := context.Background()

		srv.setCodes(0, 99991663)
		err := c.SendText(ctx, "oc", "a")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 99991663, apiErr.Code)

		srv.setCodes(0, 0)
		require.NoError(t, c.SendText(ctx, "oc", "b"))
		_, auths := srv.sent()
		require.GreaterOrEqual(t, len(auths), 2)
		assert.NotEqual(t, auths[0], auths[len(auths)-1])
		assert.GreaterOrEqual(t, srv.tokenCalls(), 2)
	})

	t.Run("legacy host suffix is accepted", func(t *testing.T) {
		srv := newLarkServer(t)
		c := New("cli_app", "secret", srv.URL+"/open-apis/")

		require.NoError(t, c.SendText(context.Background(), "oc", "a"))
		messages, _ := srv.sent()
		assert.Len(t, messages, 1)
	})
}

func TestClient_SendErrors(t *testing.T) {
	t.Run("non-zero code", func(t *testing.T) {
		srv := newLarkServer(t)
		srv.setCodes(0, 230002)
		c := New("cli_app", "secret", srv.URL)

		err := c.SendText(context.Background(), "oc", "a")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 230002, apiErr.Code)
	})

	t.Run("missing chat id", func(t *testing.T) {
		srv := newLarkServer(t)
		c := New("cli_app", "secret", srv.URL)
		require.Error(t, c.SendText(context.Background(), "", "a"))
		assert.Zero(t, srv.Calls())
	})

	t.Run("gateway error without a code", func(t *testing.T) {
		srv := newLarkServer(t)
		srv.failSends(http.StatusBadGateway)
		c := New("cli_app", "secret", srv.URL)

		err := c.SendText(context.Background(), "oc", "a")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http 502")
	})

	t.Run("non-json error page", func(t *testing.T) {
		page := testutil.NewJSONServer(t, func(r *http.Request) (int, any) {
			if r.URL.Path == "/open-apis/im/v1/messages" {
				return http.StatusBadGateway, "<html>bad gateway</html>"
			}
			return http.StatusOK, map[string]any{"code": 0, "tenant_access_token": "t", "expire": 7200}
		})
		c := New("cli_app", "secret", page.URL)
		require.Error(t, c.SendText(context.Background(), "oc", "a"))
	})
}

func TestTokenCache(t *testing.T) {
	clock := testutil.NewClock()
	c := newTokenCache(clock.Now)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "tenant", "t-1", time.Hour))
	got, err := c.Get(ctx, "tenant")
	require.NoError(t, err)
	assert.Equal(t, "t-1", got)

	clock.Advance(time.Hour)
	got, _ = c.Get(ctx, "tenant")
	assert.Empty(t, got)

	require.NoError(t, c.Set(ctx, "tenant", "t-2", time.Hour))
	c.clear()
	got, _ = c.Get(ctx, "tenant")
	assert.Empty(t, got)
}
