package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-client/internal/remote"
	"github.com/angelmondragon/storefront-client/pkg/logger"
)

const maxRequestIDLen = 64

// RequestID tags the request with an id that is echoed back, attached to log
// entries and forwarded on every API call the handler makes. Inbound ids that
// are empty, too long or not printable are replaced.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := inboundRequestID(r.Header.Get(remote.HeaderRequestID))
			w.Header().Set(remote.HeaderRequestID, id)

			ctx := remote.WithRequestID(withRequestID(r.Context(), id), id)
			if logg != nil {
				ctx = logg.WithRequestID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func inboundRequestID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxRequestIDLen {
		return uuid.NewString()
	}
	for _, ch := range id {
		if ch < 0x21 || ch > 0x7e {
			return uuid.NewString()
		}
	}
	return id
}
