package api

import (
	"net/http"
	"strings"
)

// corsMiddleware answers cross-origin requests from the configured web
// frontends. Only listed origins are echoed back; preflight requests are
// answered without reaching the mux.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := allowedOrigin(origins, r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func allowedOrigin(origins []string, origin string) string {
	if origin == "" {
		return ""
	}
	for _, allowed := range origins {
		if strings.EqualFold(allowed, origin) {
			return allowed
		}
	}
	return ""
}
