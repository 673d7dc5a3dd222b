package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	apperrors "github.com/fleetops/geoguard/pkg/errors"
)

// AdminClaims is the JWT payload accepted by AdminAuthRequired. There is
// no multi-tenant company scoping in this system — one fleet operator
// runs one deployment — so claims carry only the operator's identity.
type AdminClaims struct {
	Subject string `json:"sub"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// AdminAuthRequired validates a bearer JWT signed with jwtSecret and
// requires role == "admin". Unlike the teacher's AuthRequired, it does
// not look a user row up in the database — AdminAPI has no user table,
// the claim itself is the authorization decision.
func AdminAuthRequired(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || tokenString == authHeader {
			AbortWithUnauthorized(c, "missing or malformed Authorization header")
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			AbortWithUnauthorized(c, "invalid token")
			return
		}

		claims, ok := token.Claims.(*AdminClaims)
		if !ok || claims.Role != "admin" {
			AbortWithUnauthorized(c, "admin role required")
			return
		}

		c.Set("admin_subject", claims.Subject)
		c.Next()
	}
}

// SecurityHeaders sets a baseline set of response security headers.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// APIVersionMiddleware stamps every response with the API version the
// request was served under, for clients pinned to a particular surface.
func APIVersionMiddleware(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-API-Version", version)
		c.Next()
	}
}

// GPSRateLimit throttles ping ingestion per process. A single
// rate.Limiter is shared across all callers — one vehicle fleet, one
// ingestion surface — unlike the teacher's per-company limiter, since
// there is no company dimension to key on here.
func GPSRateLimit(requestsPerMinute int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			AbortWithError(c, apperrors.NewTooManyRequestsError("GPS ingestion rate limit exceeded"))
			return
		}
		c.Next()
	}
}
