package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"law_market_app_go/config"
	"law_market_app_go/db"
	"law_market_app_go/middleware"
	"law_market_app_go/models"
	"law_market_app_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// RegisterRequest is the payload for client and lawyer registration.
// Lawyer-only fields are ignored for clients.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`

	// Lawyer profile
	Contact    string             `json:"contact"`
	BasePrice  float64            `json:"base_price"`
	CaseTypeID string             `json:"case_type_id"`
	Expertise  []ExpertiseRequest `json:"expertise"`
}

// ExpertiseRequest is one expertise entry in a lawyer registration
type ExpertiseRequest struct {
	Field string `json:"field"`
	Years int    `json:"years"`
}

// LoginRequest is the payload for authentication
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries the issued tokens and the principal
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// RegisterHandler creates a new principal. Lawyers additionally get a
// marketplace profile with expertise entries.
func RegisterHandler(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", services.ErrValidation))
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return respondError(c, fmt.Errorf("%w: name, email and password are required", services.ErrValidation))
	}
	if !models.IsValidRole(req.Role) {
		return respondError(c, fmt.Errorf("%w: role must be user or lawyer", services.ErrValidation))
	}
	if len(req.Password) < 8 {
		return respondError(c, fmt.Errorf("%w: password must be at least 8 characters", services.ErrValidation))
	}

	var existing models.User
	if err := db.DB.First(&existing, "email = ?", req.Email).Error; err == nil {
		return respondError(c, fmt.Errorf("%w: email is already registered", services.ErrConflict))
	} else if err != gorm.ErrRecordNotFound {
		return respondError(c, fmt.Errorf("failed to check email: %w", err))
	}

	hash, err := services.HashPassword(req.Password)
	if err != nil {
		return respondError(c, err)
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Phone:    strings.TrimSpace(req.Phone),
		Role:     req.Role,
		IsActive: true,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		if user.Role != models.RoleLawyer {
			return nil
		}

		profile := models.LawyerProfile{
			UserID:    user.ID,
			Contact:   strings.TrimSpace(req.Contact),
			BasePrice: req.BasePrice,
		}
		if req.CaseTypeID != "" {
			var caseType models.CaseType
			if err := tx.First(&caseType, "id = ?", req.CaseTypeID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return fmt.Errorf("%w: case type not found", services.ErrNotFound)
				}
				return fmt.Errorf("failed to look up case type: %w", err)
			}
			profile.CaseTypeID = &caseType.ID
		}
		for _, e := range req.Expertise {
			if strings.TrimSpace(e.Field) == "" || e.Years < 0 {
				return fmt.Errorf("%w: expertise entries need a field and non-negative years", services.ErrValidation)
			}
			profile.Expertise = append(profile.Expertise, models.ExpertiseEntry{
				Field: strings.TrimSpace(e.Field),
				Years: e.Years,
			})
		}
		if err := tx.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to create lawyer profile: %w", err)
		}
		user.LawyerProfile = &profile
		return nil
	})
	if err != nil {
		return respondError(c, err)
	}

	return respond(c, http.StatusCreated, "registered successfully", user)
}

// LoginHandler authenticates a principal and issues tokens
func LoginHandler(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", services.ErrValidation))
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return respondError(c, fmt.Errorf("%w: email and password are required", services.ErrValidation))
	}

	var user models.User
	err := db.DB.Preload("LawyerProfile.Expertise").First(&user, "email = ?", req.Email).Error
	if err != nil || !services.CheckPassword(req.Password, user.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}
	if !user.IsActive {
		return echo.NewHTTPError(http.StatusUnauthorized, "Account is deactivated")
	}

	cfg := currentConfig(c)
	accessToken, err := services.GenerateAccessToken(cfg.JWTSecret, &user)
	if err != nil {
		return respondError(c, err)
	}
	refreshToken, err := services.GenerateRefreshToken(cfg.JWTSecret, &user)
	if err != nil {
		return respondError(c, err)
	}

	db.DB.Model(&user).Update("last_login_at", gorm.Expr("CURRENT_TIMESTAMP"))

	return respond(c, http.StatusOK, "logged in successfully", TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         &user,
	})
}

// MeHandler returns the authenticated principal
func MeHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	return respond(c, http.StatusOK, "current principal", user)
}

// currentConfig pulls the application config injected by the server setup
func currentConfig(c echo.Context) *config.Config {
	cfg, _ := c.Get("config").(*config.Config)
	return cfg
}
