package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/getdone/api/internal/auth"
	"github.com/getdone/api/internal/constants"
	"github.com/getdone/api/internal/dto"
	apierrors "github.com/getdone/api/internal/errors"
	"github.com/getdone/api/internal/middleware"
	"github.com/getdone/api/internal/services"
)

// UserHandler coordinates registration, login, and profile endpoints.
type UserHandler struct {
	authService *services.AuthService
	mailer      services.Mailer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService, mailer services.Mailer) *UserHandler {
	return &UserHandler{
		authService: authService,
		mailer:      mailer,
	}
}

// Register creates a new account.
func (h *UserHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "All fields are required")
		return
	}

	user, err := h.authService.Register(services.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    dto.ToUserDTO(*user),
	})
}

// Login authenticates a user and issues a short-lived bearer token.
func (h *UserHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "All fields are required")
		return
	}

	user, err := h.authService.Login(services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	token, err := auth.GenerateToken(user)
	if err != nil {
		apierrors.InternalError(c, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user":    dto.ToUserDTO(*user),
	})
}

// ResetPassword replaces the password of the account behind email.
func (h *UserHandler) ResetPassword(c *gin.Context) {
	type ResetPasswordRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Email and new password are required")
		return
	}

	if err := h.authService.ResetPassword(req.Email, req.Password); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// ValidateUserData checks name and email against the stored account
// before a password reset is allowed.
func (h *UserHandler) ValidateUserData(c *gin.Context) {
	type ValidateRequest struct {
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
		Email     string `json:"email" binding:"required"`
	}

	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "message": "Missing fields"})
		return
	}

	err := h.authService.ValidateUserData(req.FirstName, req.LastName, req.Email)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"valid": true})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"valid": false, "message": "Email not registered"})
	case errors.Is(err, services.ErrUserDataMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "message": "First and/or last name incorrect"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"valid": false, "message": "Validation failed"})
	}
}

// SendVerificationCode emails a registration verification code.
func (h *UserHandler) SendVerificationCode(c *gin.Context) {
	h.sendCode(c, "Your GetDone verification code",
		"To continue with your registration, use the following verification code: %s")
}

// SendResetPasswordCode emails a password reset code.
func (h *UserHandler) SendResetPasswordCode(c *gin.Context) {
	h.sendCode(c, "Reset your GetDone password",
		"Use the following code to reset your password: %s")
}

func (h *UserHandler) sendCode(c *gin.Context, subject, bodyFormat string) {
	type CodeRequest struct {
		Email string `json:"email" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}

	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Email and code are required")
		return
	}

	body := fmt.Sprintf(bodyFormat, req.Code)
	html := fmt.Sprintf("<p>%s</p><p>If you did not request this code, you can ignore this message.</p><hr><small>GetDone</small>", body)
	if err := h.mailer.Send(req.Email, subject, body, html); err != nil {
		apierrors.InternalError(c, "Failed to send email")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Code sent"})
}

// GetProfile returns the authenticated user's profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"email":     user.Email,
	})
}

// UpdateProfileField updates a single allowed profile field from a
// {field, value} body.
func (h *UserHandler) UpdateProfileField(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type FieldRequest struct {
		Field string `json:"field" binding:"required"`
		Value string `json:"value" binding:"required"`
	}

	var req FieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "field and value are required")
		return
	}

	if err := h.authService.UpdateProfileField(userID, req.Field, req.Value); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%s updated successfully", req.Field)})
}

// UpdateFirstName updates the caller's first name.
func (h *UserHandler) UpdateFirstName(c *gin.Context) {
	h.updateNamedField(c, "firstName")
}

// UpdateLastName updates the caller's last name.
func (h *UserHandler) UpdateLastName(c *gin.Context) {
	h.updateNamedField(c, "lastName")
}

func (h *UserHandler) updateNamedField(c *gin.Context, field string) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type ValueRequest struct {
		Value string `json:"value" binding:"required"`
	}

	var req ValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "value is required")
		return
	}

	if err := h.authService.UpdateProfileField(userID, field, req.Value); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%s updated successfully", field)})
}

// UpdatePassword changes the caller's password after verifying the
// current one.
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type PasswordRequest struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}

	var req PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "currentPassword and newPassword are required")
		return
	}

	if err := h.authService.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, "Email already in use")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrUserDataMismatch),
		errors.Is(err, services.ErrWrongCurrentPassword),
		errors.Is(err, services.ErrInvalidProfileField),
		errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrValueRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrFailedToHashPassword):
		apierrors.InternalError(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
