package common

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr string
	}{
		{name: "plain", path: "/projects/abc-123", want: "abc-123"},
		{name: "encoded", path: "/projects/my%2Fproject", want: "my/project"},
		{name: "encoded whitespace", path: "/projects/a%20b", wantErr: "id cannot contain whitespace"},
		{name: "blank", path: "/projects/%20", wantErr: "id cannot be empty"},
		{name: "bad encoding", path: "/projects/%zz", wantErr: "invalid URL encoding in id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var (
				got string
				err error
			)
			r := chi.NewRouter()
			r.Get("/projects/{id}", func(_ http.ResponseWriter, req *http.Request) {
				got, err = PathParam(req, "id")
			})

			req := &http.Request{Method: http.MethodGet, URL: requestURL(tt.path)}
			r.ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{query: "", want: 0},
		{query: "limit=25", want: 25},
		{query: "limit=%2010", want: 10},
		{query: "limit=-1", wantErr: true},
		{query: "limit=ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got, err := QueryInt(req, "limit")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  []string
	}{
		{query: "", want: nil},
		{query: "topics=projects", want: []string{"projects"}},
		{query: "topics=projects,deployments", want: []string{"projects", "deployments"}},
		{query: "topics=projects,,%20poll%20", want: []string{"projects", "poll"}},
		{query: "topics=projects&topics=poll", want: []string{"projects", "poll"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			assert.Equal(t, tt.want, QueryList(req, "topics"))
		})
	}
}

// requestURL keeps invalid escapes in the path, which url.Parse would reject
func requestURL(path string) *url.URL {
	u, err := url.Parse(path)
	if err != nil {
		return &url.URL{Path: path}
	}
	return u
}
