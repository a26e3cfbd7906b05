package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/jobboard/middleware"
	"github.com/cppla/jobboard/services"
	"github.com/cppla/jobboard/utils"
)

// AuthController handles registration, login and the dashboard.
type AuthController struct {
	accounts *services.AccountService
	cooldown time.Duration
}

// NewAuthController creates an AuthController. cooldown is the minimum gap between two
// registration attempts from one IP; zero disables it.
func NewAuthController(accounts *services.AccountService, cooldown time.Duration) *AuthController {
	return &AuthController{accounts: accounts, cooldown: cooldown}
}

// RegisterStudent creates a student account.
func (a *AuthController) RegisterStudent(ctx *gin.Context) {
	a.register(ctx, false)
}

// RegisterCompany creates a company account.
func (a *AuthController) RegisterCompany(ctx *gin.Context) {
	a.register(ctx, true)
}

func (a *AuthController) register(ctx *gin.Context, isCompany bool) {
	var req services.RegistrationInput
	if !bindJSON(ctx, &req) {
		return
	}

	// only well-formed attempts count toward the cooldown
	if err := services.ValidateRegistration(&req); err != nil {
		respondError(ctx, err, "")
		return
	}
	ip := ctx.ClientIP()
	if !utils.RegistrationCooldownTry(ip, a.cooldown) {
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "too many registration attempts, please retry shortly")
		return
	}

	user, err := a.accounts.Register(ctx.Request.Context(), req, isCompany, ip)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	// no auto login: the client signs in explicitly
	utils.Created(ctx, gin.H{"user": user, "role": user.Role()})
}

// Login verifies user credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(ctx, &req) {
		return
	}

	res, err := a.accounts.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, gin.H{
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"user":       res.User,
		"role":       res.User.Role(),
	})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	expiresAt := ctx.GetTime(middleware.ContextTokenExpiryKey)
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(72 * time.Hour)
	}
	a.accounts.Logout(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Dashboard returns the caller's account with role-specific counters.
func (a *AuthController) Dashboard(ctx *gin.Context) {
	d, err := a.accounts.Dashboard(ctx.Request.Context(), currentIdentity(ctx))
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	utils.Success(ctx, d)
}
