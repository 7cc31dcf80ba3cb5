package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/donorlens/donorlens/internal/auth/domain"
	httpapi "github.com/donorlens/donorlens/internal/auth/http"
	"github.com/donorlens/donorlens/internal/auth/service"
	"github.com/donorlens/donorlens/internal/auth/store/drivers/sqlite"
	"github.com/donorlens/donorlens/pkg/authsdk"
	"github.com/donorlens/donorlens/pkg/jwtx"
	"github.com/donorlens/donorlens/pkg/slogx"
)

/*
 * End-to-end tests drive the real SDK against a real server: the full
 * router, middleware stack, and an in-memory SQLite store, served over
 * an actual HTTP listener.
 */

const (
	adminEmail    = "root@donorlens.org"
	adminPassword = "Admin123!pass"

	memberEmail    = "amelia@donorlens.org"
	memberPassword = "Member123!pass"
)

type testServer struct {
	URL   string
	store *sqlite.Store
	users *service.UserService

	// renewCalls counts hits on the renewal endpoint, observed at the
	// HTTP layer so SDK coordination can be verified end to end.
	renewCalls atomic.Int64
}

// startAuthServer boots the full auth service in-process and seeds an
// admin and a regular member account.
func startAuthServer(t *testing.T, mutate ...func(*jwtx.Config)) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.ApplyMigrations())

	codecCfg := jwtx.Config{
		AccessSecret:  []byte("e2e-access-secret"),
		RenewalSecret: []byte("e2e-renewal-secret"),
		Issuer:        "donorlens-e2e",
	}
	for _, fn := range mutate {
		fn(&codecCfg)
	}
	codec, err := jwtx.NewCodec(codecCfg)
	require.NoError(t, err)

	users := &service.UserService{Store: st}
	router := &httpapi.Router{
		Sessions:   &service.SessionService{Codec: codec, Store: st},
		Users:      users,
		Codec:      codec,
		Store:      st,
		RenewalTTL: codec.RenewalTTL(),
		Version:    "e2e",
	}

	mux := http.NewServeMux()
	router.ApplyRoutes(mux)

	logger := slogx.New(slogx.Config{Service: "auth-e2e", Level: "error", Format: "text"})
	handler := slogx.HTTPMiddleware(logger)(mux)

	ts := &testServer{store: st, users: users}
	counted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/auth/renew" {
			ts.renewCalls.Add(1)
		}
		handler.ServeHTTP(w, r)
	})

	srv := httptest.NewServer(counted)
	t.Cleanup(srv.Close)
	ts.URL = srv.URL

	ctx := context.Background()
	_, err = users.CreateUser(ctx, adminEmail, "Administrator", adminPassword, domain.RoleAdmin)
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, memberEmail, "Amelia Member", memberPassword, domain.RoleUser)
	require.NoError(t, err)

	return ts
}

func newSDKClient(t *testing.T, ts *testServer, opts ...authsdk.Option) *authsdk.Client {
	t.Helper()
	client, err := authsdk.New(ts.URL, opts...)
	require.NoError(t, err)
	return client
}

func loginAs(t *testing.T, client *authsdk.Client, email, password string) authsdk.UserPayload {
	t.Helper()
	user, err := client.Session().Login(context.Background(), email, password)
	require.NoError(t, err)
	return user
}
