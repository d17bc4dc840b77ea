package middleware

import (
	"net/http"

	"github.com/waforge/gateway-go/internal/httputil"
)

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}
