package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/jobboard/models"
	"github.com/cppla/jobboard/utils"
)

// AccountService covers registration, login and the per-role dashboard.
type AccountService struct {
	db       *gorm.DB
	tokenTTL time.Duration
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Dashboard is the landing summary for a signed-in user. Only the fields of the caller's role are set.
type Dashboard struct {
	User                 *models.User                       `json:"user"`
	Role                 string                             `json:"role"`
	JobCount             *int64                             `json:"job_count,omitempty"`
	ReceivedApplications *int64                             `json:"received_applications,omitempty"`
	PendingApplications  *int64                             `json:"pending_applications,omitempty"`
	MyApplications       *int64                             `json:"my_applications,omitempty"`
	ByStatus             map[models.ApplicationStatus]int64 `json:"by_status,omitempty"`
}

// NewAccountService creates an AccountService issuing tokens valid for tokenTTL.
func NewAccountService(db *gorm.DB, tokenTTL time.Duration) *AccountService {
	if tokenTTL <= 0 {
		tokenTTL = 72 * time.Hour
	}
	return &AccountService{db: db, tokenTTL: tokenTTL}
}

// Register creates a student or company account. No session is started.
func (s *AccountService) Register(ctx context.Context, in RegistrationInput, isCompany bool, ip string) (*models.User, error) {
	if err := ValidateRegistration(&in); err != nil {
		return nil, err
	}

	var taken int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", in.Username).Count(&taken).Error; err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken > 0 {
		return nil, newFieldError("username", "a user with that username already exists")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		IsCompany:    isCompany,
		RegisterIP:   ip,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newFieldError("username", "a user with that username already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	utils.Sugar.Infow("user registered", "user_id", user.ID, "role", user.Role(), "ip", ip)
	return &user, nil
}

// Login checks the credentials and issues a bearer token.
func (s *AccountService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}
	// compare even for unknown users so both failures take the same time
	if !utils.CheckPassword(user.PasswordHash, password) || user.ID == 0 {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := utils.GenerateToken(user.ID, user.Username, user.IsCompany, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: &user}, nil
}

// Logout revokes token until it would have expired anyway.
func (s *AccountService) Logout(token string, expiresAt time.Time) {
	utils.BlacklistToken(token, expiresAt)
}

// Dashboard returns the caller's account and the counters relevant to their role.
func (s *AccountService) Dashboard(ctx context.Context, caller Identity) (*Dashboard, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, caller.UserID).Error; err != nil {
		return nil, notFoundOr(err, "load user")
	}
	d := &Dashboard{User: &user, Role: user.Role()}
	db := s.db.WithContext(ctx)

	if user.IsCompany {
		var jobs, received, pending int64
		if err := db.Model(&models.JobPosting{}).Where("recruiter_id = ?", user.ID).Count(&jobs).Error; err != nil {
			return nil, fmt.Errorf("count jobs: %w", err)
		}
		owned := s.db.Model(&models.JobPosting{}).Select("id").Where("recruiter_id = ?", user.ID)
		if err := db.Model(&models.Application{}).Where("job_posting_id IN (?)", owned).Count(&received).Error; err != nil {
			return nil, fmt.Errorf("count received applications: %w", err)
		}
		if err := db.Model(&models.Application{}).
			Where("job_posting_id IN (?) AND status = ?", owned, models.StatusPending).
			Count(&pending).Error; err != nil {
			return nil, fmt.Errorf("count pending applications: %w", err)
		}
		d.JobCount, d.ReceivedApplications, d.PendingApplications = &jobs, &received, &pending
		return d, nil
	}

	var rows []struct {
		Status models.ApplicationStatus
		N      int64
	}
	if err := db.Model(&models.Application{}).
		Select("status, COUNT(*) AS n").
		Where("applicant_id = ?", user.ID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count my applications: %w", err)
	}
	var total int64
	d.ByStatus = map[models.ApplicationStatus]int64{
		models.StatusPending:  0,
		models.StatusAccepted: 0,
		models.StatusRejected: 0,
	}
	for _, r := range rows {
		d.ByStatus[r.Status] = r.N
		total += r.N
	}
	d.MyApplications = &total
	return d, nil
}
