package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/pabg92/astralabs-sub005/pkg/logger"
)

const (
	headerRequestID = "X-Request-ID"
	headerTenantID  = "X-Tenant-ID"
)

// RequestID attaches a request ID to the context and response, reusing the
// caller's header when present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = NewRequestID()
		}
		ctx := context.WithValue(r.Context(), logger.RequestIDKey, id)
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Tenant resolves the tenant identifier from the X-Tenant-ID header.
// Authentication itself happens upstream; a request without a resolved
// tenant never reaches a store query.
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := r.Header.Get(headerTenantID)
		if tenant == "" {
			WriteError(w, http.StatusForbidden, "TENANT_REQUIRED", "missing tenant identity", nil)
			return
		}
		ctx := context.WithValue(r.Context(), logger.TenantKey, tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TenantFromContext returns the tenant set by the Tenant middleware.
func TenantFromContext(ctx context.Context) string {
	tenant, _ := ctx.Value(logger.TenantKey).(string)
	return tenant
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs one line per request with method, path, status and
// duration.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
