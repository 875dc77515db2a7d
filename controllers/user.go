package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/repository"
	"go-storefront/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTPSender delivers registration codes
type OTPSender interface {
	SendOTPEmail(toEmail, code string) error
}

// UserController handles registration, sign-in and profile requests
type UserController struct {
	Users      repository.UserStore
	OTPs       repository.OTPStore
	Tokens     *utils.TokenIssuer
	Emails     OTPSender
	Social     utils.IdentityVerifier
	AdminEmail string
	// Development exposes mail provider errors to the client
	Development bool

	now func() time.Time
}

// NewUserController creates a new UserController. social may be nil when sign-in with Google is off.
func NewUserController(users repository.UserStore, otps repository.OTPStore, tokens *utils.TokenIssuer,
	emails OTPSender, social utils.IdentityVerifier, adminEmail string) *UserController {
	return &UserController{
		Users:      users,
		OTPs:       otps,
		Tokens:     tokens,
		Emails:     emails,
		Social:     social,
		AdminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		now:        time.Now,
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (req *registerRequest) normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
}

type authResponse struct {
	Message string             `json:"message"`
	Token   string             `json:"token"`
	UserID  primitive.ObjectID `json:"userId"`
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	IsAdmin bool               `json:"isAdmin"`
}

// SendOTP stages a registration and emails the verification code
func (uc *UserController) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	req.normalize()
	if !uc.validRegistration(w, &req) {
		return
	}

	ctx := r.Context()
	if uc.userExists(ctx, w, req.Email) {
		return
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		serverError(w, err, "Failed to send OTP")
		return
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		serverError(w, err, "Failed to send OTP")
		return
	}
	now := uc.now().UTC()
	otp := &models.OTP{
		Email:     req.Email,
		Code:      code,
		Name:      req.Name,
		Password:  hash,
		ExpiresAt: now.Add(models.OTPTTL),
		CreatedAt: now,
	}
	if err := uc.OTPs.Replace(ctx, otp); err != nil {
		serverError(w, err, "Failed to send OTP")
		return
	}

	if err := uc.Emails.SendOTPEmail(req.Email, code); err != nil {
		logrus.WithError(err).WithField("email", req.Email).Error("Email sending error")
		message := "Failed to send OTP email. Please try again in a few moments."
		if errors.Is(err, utils.ErrMailNotConfigured) {
			message = "Email service configuration error. Please contact support."
		}
		body := map[string]any{"success": false, "message": message}
		if uc.Development {
			body["error"] = err.Error()
		}
		utils.RespondJSON(w, http.StatusInternalServerError, body)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "OTP sent to your email",
		"email":   req.Email,
	})
}

// VerifyOTP completes a staged registration and signs the new user in
func (uc *UserController) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Email and OTP are required")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	code := strings.TrimSpace(req.OTP)
	if email == "" || code == "" {
		utils.RespondError(w, http.StatusBadRequest, "Email and OTP are required")
		return
	}

	ctx := r.Context()
	otp, err := uc.OTPs.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && otp.Expired(uc.now())) {
		utils.RespondError(w, http.StatusBadRequest, "OTP not found or expired")
		return
	}
	if err != nil {
		serverError(w, err, "Failed to verify OTP")
		return
	}
	if !utils.OTPMatches(otp.Code, code) {
		utils.RespondError(w, http.StatusBadRequest, "Invalid OTP")
		return
	}

	if _, err := uc.Users.FindByEmail(ctx, email); err == nil {
		uc.dropOTP(ctx, email)
		utils.RespondError(w, http.StatusBadRequest, "User already exists")
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		serverError(w, err, "Failed to verify OTP")
		return
	}

	user := &models.User{Name: otp.Name, Email: otp.Email, Password: otp.Password, Provider: models.ProviderLocal}
	if err := uc.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			uc.dropOTP(ctx, email)
			utils.RespondError(w, http.StatusBadRequest, "User already exists")
			return
		}
		serverError(w, err, "Failed to verify OTP")
		return
	}
	uc.applyAdminEmail(ctx, user)

	token, err := uc.Tokens.GenerateJWT(user.ID, user.Name, user.Email)
	if err != nil {
		serverError(w, err, "Failed to verify OTP")
		return
	}
	uc.dropOTP(ctx, email)

	utils.RespondJSON(w, http.StatusCreated, authResponse{
		Message: "Registration successful",
		Token:   token,
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
}

// Signup registers a user directly, without email verification
func (uc *UserController) Signup(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	req.normalize()
	if !uc.validRegistration(w, &req) {
		return
	}

	ctx := r.Context()
	if uc.userExists(ctx, w, req.Email) {
		return
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		serverError(w, err, "Server error")
		return
	}
	user := &models.User{Name: req.Name, Email: req.Email, Password: hash, Provider: models.ProviderLocal}
	if err := uc.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			utils.RespondError(w, http.StatusBadRequest, "User already exists")
			return
		}
		serverError(w, err, "Server error")
		return
	}
	uc.applyAdminEmail(ctx, user)

	utils.RespondMessage(w, http.StatusCreated, "Registration successful")
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSON(w, r, &creds); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Please provide valid input")
		return
	}
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || creds.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, "Please provide valid input")
		return
	}

	ctx := r.Context()
	user, err := uc.Users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		utils.RespondError(w, http.StatusBadRequest, "Email not found, register first")
		return
	}
	if err != nil {
		serverError(w, err, "Server error")
		return
	}
	if !user.HasLocalPassword() || !utils.CheckPassword(user.Password, creds.Password) {
		utils.RespondError(w, http.StatusBadRequest, "Incorrect password")
		return
	}

	uc.signIn(ctx, w, user)
}

// SocialAuth signs in with a Firebase ID token, creating the account on first use
func (uc *UserController) SocialAuth(w http.ResponseWriter, r *http.Request) {
	if uc.Social == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "Social sign-in is not configured")
		return
	}
	var req struct {
		IDToken string `json:"idToken"`
		Token   string `json:"token"`
	}
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "ID token is required")
		return
	}
	idToken := strings.TrimSpace(req.IDToken)
	if idToken == "" {
		idToken = strings.TrimSpace(req.Token)
	}
	if idToken == "" {
		utils.RespondError(w, http.StatusBadRequest, "ID token is required")
		return
	}

	ctx := r.Context()
	identity, err := uc.Social.VerifyIDToken(ctx, idToken)
	if err != nil {
		logrus.WithError(err).Warn("Social token verification failed")
		utils.RespondError(w, http.StatusUnauthorized, "Social authentication failed")
		return
	}

	user, err := uc.Users.FindByEmail(ctx, identity.Email)
	if errors.Is(err, repository.ErrNotFound) {
		user = &models.User{Name: identity.Name, Email: identity.Email, Provider: models.ProviderGoogle}
		err = uc.Users.Create(ctx, user)
		if errors.Is(err, repository.ErrDuplicate) {
			user, err = uc.Users.FindByEmail(ctx, identity.Email)
		}
	}
	if err != nil {
		serverError(w, err, "Server error")
		return
	}

	uc.signIn(ctx, w, user)
}

// GetProfile returns the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "User not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, user.Profile())
}

// ListUsers returns every account, newest first (admin only)
func (uc *UserController) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := uc.Users.List(r.Context())
	if err != nil {
		serverError(w, err, "Server error")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	utils.RespondJSON(w, http.StatusOK, users)
}

func (uc *UserController) signIn(ctx context.Context, w http.ResponseWriter, user *models.User) {
	uc.applyAdminEmail(ctx, user)
	token, err := uc.Tokens.GenerateJWT(user.ID, user.Name, user.Email)
	if err != nil {
		serverError(w, err, "Server error")
		return
	}
	utils.RespondJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   token,
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
}

func (uc *UserController) validRegistration(w http.ResponseWriter, req *registerRequest) bool {
	if err := utils.Validate.Struct(req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "All fields are required")
		return false
	}
	if errs := utils.ValidatePassword(req.Password); len(errs) > 0 {
		utils.RespondError(w, http.StatusBadRequest, errs[0])
		return false
	}
	return true
}

// userExists writes the response itself when the email is taken or the lookup fails
func (uc *UserController) userExists(ctx context.Context, w http.ResponseWriter, email string) bool {
	_, err := uc.Users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		utils.RespondError(w, http.StatusBadRequest, "User already exists")
		return true
	case errors.Is(err, repository.ErrNotFound):
		return false
	default:
		serverError(w, err, "Server error")
		return true
	}
}

// applyAdminEmail promotes the configured admin account the first time it signs in
func (uc *UserController) applyAdminEmail(ctx context.Context, user *models.User) {
	if uc.AdminEmail == "" || user.IsAdmin || !strings.EqualFold(user.Email, uc.AdminEmail) {
		return
	}
	if err := uc.Users.SetAdmin(ctx, user.ID, true); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID.Hex()).Error("Failed to grant admin role")
		return
	}
	user.IsAdmin = true
	logrus.WithField("user_id", user.ID.Hex()).Info("Granted admin role to configured admin email")
}

func (uc *UserController) dropOTP(ctx context.Context, email string) {
	if err := uc.OTPs.DeleteByEmail(ctx, email); err != nil {
		logrus.WithError(err).WithField("email", email).Warn("Failed to delete OTP")
	}
}

func serverError(w http.ResponseWriter, err error, message string) {
	logrus.WithError(err).Error(message)
	utils.RespondError(w, http.StatusInternalServerError, message)
}
