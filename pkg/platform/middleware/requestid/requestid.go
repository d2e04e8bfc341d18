package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"idv-gateway/pkg/requestcontext"
)

// Header carries the request correlation id between services.
const Header = "X-Request-Id"

// RequestID assigns a correlation id to every request, honoring one supplied
// by the fronting proxy, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
