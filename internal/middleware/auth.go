package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const driverIDKey = "driverID"

// DriverClaims are the JWT claims embedded in driver tokens.
type DriverClaims struct {
	jwt.RegisteredClaims
	DriverID string `json:"driver_id"`
}

// ErrNoToken is returned when the Authorization header is absent or
// not a bearer token.
var ErrNoToken = errors.New("missing bearer token")

// IssueDriverToken signs a token identifying a driver. Used by
// provisioning tooling and tests.
func IssueDriverToken(secret, driverID string, ttl time.Duration) (string, error) {
	claims := DriverClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		DriverID: driverID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// AuthMiddleware validates the bearer token and stores the driver
// identity on the request context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": err.Error()})
			return
		}

		claims := &DriverClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.DriverID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid token"})
			return
		}

		c.Set(driverIDKey, claims.DriverID)
		c.Next()
	}
}

// DriverID returns the authenticated driver's ID, or "" when the
// request was not authenticated.
func DriverID(c *gin.Context) string {
	return c.GetString(driverIDKey)
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrNoToken
	}
	return parts[1], nil
}
