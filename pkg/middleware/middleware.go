// Package middleware holds net/http middleware shared by the routers.
package middleware

import "net/http"

type Middleware func(next http.Handler) http.Handler
