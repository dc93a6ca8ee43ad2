package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS 允许第三方页面直接调用 webhook 与挂件接口。
var CORS = cors.Handler(cors.Options{
	AllowedOrigins: []string{"*"},
	AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	AllowedHeaders: []string{"Content-Type"},
	MaxAge:         300,
})
