package http

import (
	"net/http"
	"regexp"
	"strings"
)

// CORS adds CORS headers for a configured allow-list. Entries may contain a
// wildcard (e.g. https://*.example.app) to cover preview deployments.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowAll := false
	exact := make(map[string]struct{}, len(allowedOrigins))
	var patterns []*regexp.Regexp
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		switch {
		case origin == "":
		case origin == "*":
			allowAll = true
		case strings.Contains(origin, "*"):
			quoted := strings.ReplaceAll(regexp.QuoteMeta(origin), `\*`, ".*")
			if re, err := regexp.Compile("^" + quoted + "$"); err == nil {
				patterns = append(patterns, re)
			}
		default:
			exact[origin] = struct{}{}
		}
	}

	originAllowed := func(origin string) bool {
		if allowAll {
			return true
		}
		if _, ok := exact[origin]; ok {
			return true
		}
		for _, re := range patterns {
			if re.MatchString(origin) {
				return true
			}
		}
		return false
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		if !originAllowed(origin) {
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				writeError(w, http.StatusForbidden, codeForbidden, "origin not allowed")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if allowAll {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
