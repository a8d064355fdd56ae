package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTable_Default(t *testing.T) {
	table, err := LoadTable("", nil)
	require.NoError(t, err)

	routes := table.Routes()
	require.Len(t, routes, 6)

	tests := []struct {
		path     string
		wantName string
		wantOK   bool
	}{
		{"/auth/login", "auth", true},
		{"/auth", "auth", true},
		{"/lms/courses/1", "lms", true},
		{"/student/42", "student", true},
		{"/profiler/clusters", "profiler", true},
		{"/predictor/predict", "predictor", true},
		{"/reco/1", "reco", true},
		{"/authority", "", false},
		{"/unknown", "", false},
		{"/", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r, ok := table.Match(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, r.Name)
		})
	}

	lms, _ := table.Match("/lms")
	assert.Equal(t, "http://localhost:3001", lms.Target)
	assert.Equal(t, map[string]string{"^/lms*": "/api/lms$1"}, lms.Rewrite)
}

func TestLoadTable_Overrides(t *testing.T) {
	table, err := LoadTable("", map[string]string{"lms": "http://lms:3001", "auth": ""})
	require.NoError(t, err)

	lms, _ := table.Match("/lms/courses")
	assert.Equal(t, "http://lms:3001", lms.Target)
	auth, _ := table.Match("/auth/login")
	assert.Equal(t, "http://localhost:3005", auth.Target)
}

func TestParseTable_LongestPrefixFirst(t *testing.T) {
	data := []byte(`
routes:
  - name: api
    prefix: /api
    target: http://a:1
  - name: api-v2
    prefix: /api/v2/
    target: https://b:2
`)
	table, err := ParseTable(data, nil)
	require.NoError(t, err)

	r, ok := table.Match("/api/v2/things")
	require.True(t, ok)
	assert.Equal(t, "api-v2", r.Name)
	assert.Equal(t, "/api/v2", r.Prefix)

	r, ok = table.Match("/api/v1/things")
	require.True(t, ok)
	assert.Equal(t, "api", r.Name)
}

func TestParseTable_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", `routes: []`},
		{"bad yaml", `routes: [`},
		{"no name", "routes:\n  - prefix: /a\n    target: http://a"},
		{"duplicate name", "routes:\n  - {name: a, prefix: /a, target: http://a}\n  - {name: a, prefix: /b, target: http://b}"},
		{"duplicate prefix", "routes:\n  - {name: a, prefix: /a, target: http://a}\n  - {name: b, prefix: /a/, target: http://b}"},
		{"relative prefix", "routes:\n  - {name: a, prefix: a, target: http://a}"},
		{"bad scheme", "routes:\n  - {name: a, prefix: /a, target: ftp://a}"},
		{"no host", "routes:\n  - {name: a, prefix: /a, target: 'http://'}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable([]byte(tt.data), nil)
			assert.Error(t, err)
		})
	}
}

func TestTable_RoutesIsACopy(t *testing.T) {
	table, err := LoadTable("", nil)
	require.NoError(t, err)

	routes := table.Routes()
	routes[0].Target = "http://changed"
	assert.NotEqual(t, "http://changed", table.Routes()[0].Target)
}
