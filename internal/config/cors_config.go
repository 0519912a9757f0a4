package config

import (
	"sort"
	"strings"
)

type Cors struct {
	file *fileConfig
}

var _ CorsConfig = Cors{}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	sort.Strings(origins)
	return strings.Join(origins, ", ")
}

var defaultAllowedOrigins = []string{"http://localhost:8080", "http://localhost:5173"}

func (c Cors) GetAllowedOrigins() AllowedOrigins {
	origins := GetEnvList("CORS_ALLOWED_ORIGINS")
	if len(origins) == 0 && c.file != nil {
		origins = c.file.Cors.AllowedOrigins
	}
	if len(origins) == 0 {
		origins = defaultAllowedOrigins
	}

	allowed := make(AllowedOrigins, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = nullValue{}
	}
	return allowed
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST, PUT, PATCH, DELETE"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization, HX-Request, HX-Current-URL"
}
