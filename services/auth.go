package services

import (
	"fmt"
	"time"

	"law_market_app_go/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10
	// AccessTokenDuration is how long an access token stays valid
	AccessTokenDuration = 9 * 24 * time.Hour
	// RefreshTokenDuration is how long a refresh token stays valid
	RefreshTokenDuration = 7 * 24 * time.Hour
)

// TokenClaims is the JWT payload: the subject id plus a role tag that decides
// which capabilities the principal has.
type TokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword verifies a password against a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateAccessToken issues a signed bearer token for the principal
func GenerateAccessToken(secret string, user *models.User) (string, error) {
	return generateToken(secret, user, AccessTokenDuration)
}

// GenerateRefreshToken issues a longer-lived token used only to mint new
// access tokens
func GenerateRefreshToken(secret string, user *models.User) (string, error) {
	return generateToken(secret, user, RefreshTokenDuration)
}

func generateToken(secret string, user *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a bearer token and returns its claims
func ParseToken(secret string, tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// AuthenticatePrincipal resolves a token's subject against the user store.
// Both clients and lawyers live in the same store; the role claim only has to
// match what is persisted.
func AuthenticatePrincipal(db *gorm.DB, secret string, tokenString string) (*models.User, error) {
	claims, err := ParseToken(secret, tokenString)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := db.Preload("LawyerProfile.Expertise").First(&user, "id = ?", claims.Subject).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("principal not found")
		}
		return nil, fmt.Errorf("failed to load principal: %w", err)
	}

	if user.Role != claims.Role {
		return nil, fmt.Errorf("token role does not match principal")
	}
	if !user.IsActive {
		return nil, fmt.Errorf("account is deactivated")
	}

	return &user, nil
}
