package web

import (
	"context"
	"net/http"

	"github.com/willbda/happy-to-have-lived-sub002/internal/core"
)

// withOrigin marks ctx as started by an HTTP client for confirm log
// attribution. RemoteAddr has already been resolved by TrustedRealIP.
func withOrigin(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithOrigin(ctx, core.Origin{Source: "http", RemoteAddr: r.RemoteAddr})
}
