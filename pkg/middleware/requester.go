package middleware

import (
	"net/http"

	"parking-reservation/pkg/utils"

	"go.uber.org/zap"
)

// RequesterRef extracts the X-Requester-Ref header into the request context.
// The value is the opaque account reference minted by the upstream auth
// service; requests without it are rejected.
func RequesterRef(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ref := r.Header.Get("X-Requester-Ref")
			if ref == "" {
				logger.Warn("Missing requester reference",
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
				)
				utils.ResponseBadRequest(w, "X-Requester-Ref header is required", nil)
				return
			}

			ctx := utils.SetRequesterRefContext(r.Context(), ref)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
