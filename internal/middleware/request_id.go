package middleware

import (
	"net/http"

	"github.com/S1riyS/graphfs/pkg/logging"
)

// RequestIDMiddleware takes the request id from X-Request-ID or generates one,
// stores it in the context and echoes it back in the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := logging.GetRequestIDFromCtx(ctx)
		if requestID == "" {
			ctx = logging.MakeContextWithRequestID(ctx, r.Header.Get(logging.RequestIDHeader))
			requestID = logging.GetRequestIDFromCtx(ctx)
		}

		w.Header().Set(logging.RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
