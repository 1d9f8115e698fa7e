package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tarik1bosunia/online-exam-management-system/internal/config"
	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
	"github.com/tarik1bosunia/online-exam-management-system/internal/services"
	"github.com/tarik1bosunia/online-exam-management-system/internal/utils"
)

const (
	contextUserID    = "user_id"
	contextUserRole  = "user_role"
	contextPrincipal = "principal"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier turns a bearer token into a verified principal
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.Principal, error)
}

// NewTokenVerifier picks the verifier named by AUTH_PROVIDER
func NewTokenVerifier(cfg *config.Config) (TokenVerifier, error) {
	switch cfg.AuthProvider {
	case config.AuthProviderCasdoor:
		return NewCasdoorVerifier(cfg.Casdoor), nil
	case config.AuthProviderJWT:
		return NewJWTVerifier(cfg.JWT.SecretKey, cfg.JWT.AccessTokenExpires), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.AuthProvider)
	}
}

// ===== HS256 =====

type tokenClaims struct {
	Role     string `json:"role"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier checks HS256 tokens signed with a shared secret. The subject
// claim is the user id.
type JWTVerifier struct {
	secret []byte
	maxAge time.Duration
}

// NewJWTVerifier rejects tokens issued more than maxAge ago, whatever their
// expiry says. Zero disables the check.
func NewJWTVerifier(secret string, maxAge time.Duration) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), maxAge: maxAge}
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*models.Principal, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if v.maxAge > 0 && claims.IssuedAt != nil && time.Since(claims.IssuedAt.Time) > v.maxAge {
		return nil, fmt.Errorf("%w: token older than %s", ErrInvalidToken, v.maxAge)
	}

	role := models.UserRole(strings.ToLower(claims.Role))
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return &models.Principal{
		UserID:   claims.Subject,
		Role:     role,
		Email:    claims.Email,
		FullName: claims.FullName,
	}, nil
}

// Issue signs a token for principal, valid for ttl
func (v *JWTVerifier) Issue(principal models.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Role:     string(principal.Role),
		Email:    principal.Email,
		FullName: principal.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// ===== CASDOOR =====

// CasdoorVerifier validates tokens issued by a Casdoor application
type CasdoorVerifier struct {
	client *casdoorsdk.Client
}

func NewCasdoorVerifier(cfg config.CasdoorConfig) *CasdoorVerifier {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorVerifier{client: client}
}

func (v *CasdoorVerifier) Verify(ctx context.Context, token string) (*models.Principal, error) {
	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Id == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}

	return &models.Principal{
		UserID:   claims.Id,
		Role:     mapCasdoorRole(claims.User.Type, claims.User.IsAdmin),
		Email:    claims.User.Email,
		FullName: claims.User.DisplayName,
	}, nil
}

// mapCasdoorRole maps a Casdoor user type to an internal role
func mapCasdoorRole(userType string, isAdmin bool) models.UserRole {
	if isAdmin {
		return models.RoleAdmin
	}
	switch strings.ToLower(userType) {
	case "admin", "administrator":
		return models.RoleAdmin
	case "teacher", "instructor", "educator":
		return models.RoleTeacher
	default:
		return models.RoleStudent
	}
}

// ===== MIDDLEWARE =====

type AuthMiddleware struct {
	verifier TokenVerifier
	policy   services.AccessPolicy
	logger   utils.Logger
}

func NewAuthMiddleware(verifier TokenVerifier, policy services.AccessPolicy, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, policy: policy, logger: logger}
}

// Authenticate rejects requests without a valid bearer token
func (am *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Authorization header missing",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid authorization header format",
			})
			return
		}

		principal, err := am.verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			utils.FromContext(c, am.logger).Warn("Token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			return
		}

		c.Set(contextUserID, principal.UserID)
		c.Set(contextUserRole, principal.Role)
		c.Set(contextPrincipal, *principal)
		c.Next()
	}
}

// RequireElevated rejects principals the access policy does not elevate
func (am *AuthMiddleware) RequireElevated() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := getPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
			})
			return
		}

		if !am.policy.IsElevated(principal) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Access denied",
				Details: map[string]interface{}{
					"role":   principal.Role,
					"reason": "elevated role required",
				},
			})
			return
		}

		c.Next()
	}
}

func getPrincipal(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(contextPrincipal)
	if !ok {
		return models.Principal{}, false
	}
	principal, ok := v.(models.Principal)
	return principal, ok
}

// requirePrincipal writes a 401 when the request carries no principal
func requirePrincipal(c *gin.Context) (models.Principal, bool) {
	principal, ok := getPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
	}
	return principal, ok
}
