package host_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/compose"
	"github.com/bjaus/compose/host"
	"github.com/bjaus/compose/middleware"
)

type anonymousAuth struct{}

func (anonymousAuth) Identity(context.Context) (string, error) { return "", nil }

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	r := host.New(host.WithIdentity(anonymousAuth{}))

	greet := compose.Handler(
		compose.Query().Input(compose.Object(compose.F("name", compose.String()))),
		func(ctx *compose.Ctx, args struct {
			Name string `json:"name"`
		}) (string, error) {
			return "hello " + args.Name, nil
		},
	)
	require.NoError(t, r.Register("greet", greet.Public()))

	secret := compose.Handler(compose.Query(), func(ctx *compose.Ctx, _ struct{}) (string, error) {
		return "hidden", nil
	})
	require.NoError(t, r.Register("secret", secret.Internal()))

	locked := compose.Handler(
		compose.Mutation().Use(middleware.RequireIdentity()),
		func(ctx *compose.Ctx, _ struct{}) (string, error) {
			return "done", nil
		},
	)
	require.NoError(t, r.Register("locked", locked.Public()))

	return r.Handler()
}

func TestHTTPSurface(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t))
	defer srv.Close()

	tests := map[string]struct {
		method string
		path   string
		body   string
		status int
		want   string
	}{
		"public query": {
			method: http.MethodPost,
			path:   "/api/query/greet",
			body:   `{"name": "alice"}`,
			status: http.StatusOK,
			want:   `"hello alice"`,
		},
		"validation failure": {
			method: http.MethodPost,
			path:   "/api/query/greet",
			body:   `{"name": 7}`,
			status: http.StatusBadRequest,
		},
		"internal invisible": {
			method: http.MethodPost,
			path:   "/api/query/secret",
			body:   `{}`,
			status: http.StatusNotFound,
		},
		"unknown function": {
			method: http.MethodPost,
			path:   "/api/query/missing",
			body:   `{}`,
			status: http.StatusNotFound,
		},
		"wrong kind": {
			method: http.MethodPost,
			path:   "/api/mutation/greet",
			body:   `{"name": "alice"}`,
			status: http.StatusNotFound,
		},
		"unknown kind": {
			method: http.MethodPost,
			path:   "/api/task/greet",
			body:   `{}`,
			status: http.StatusNotFound,
		},
		"unauthorized": {
			method: http.MethodPost,
			path:   "/api/mutation/locked",
			body:   `{}`,
			status: http.StatusUnauthorized,
		},
		"wrong method": {
			method: http.MethodGet,
			path:   "/api/query/greet",
			status: http.StatusMethodNotAllowed,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.status == http.StatusOK {
				var env struct {
					Status string          `json:"status"`
					Value  json.RawMessage `json:"value"`
				}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
				assert.Equal(t, "success", env.Status)
				assert.JSONEq(t, tt.want, string(env.Value))
			} else if resp.StatusCode != http.StatusMethodNotAllowed {
				var env struct {
					Status  string `json:"status"`
					Message string `json:"message"`
				}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
				assert.Equal(t, "error", env.Status)
				assert.NotEmpty(t, env.Message)
			}
		})
	}
}
