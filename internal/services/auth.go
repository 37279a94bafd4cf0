package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/skillforge-backend/internal/data/repos"
	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/platform/apierr"
	"github.com/yungbote/skillforge-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillforge-backend/internal/platform/dberr"
	"github.com/yungbote/skillforge-backend/internal/platform/dbctx"
	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

const (
	minPasswordLength = 8
	minUsernameLength = 3
	maxUsernameLength = 32
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type JWTClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, string, error)
	Login(ctx context.Context, email, password string) (*types.User, string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	return &authService{
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func validateRegistration(in *RegisterInput) error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if _, err := mail.ParseAddress(in.Email); err != nil || !strings.Contains(in.Email, "@") {
		return apierr.BadRequest("invalid_email", fmt.Errorf("a valid email is required"))
	}
	if n := len(in.Username); n < minUsernameLength || n > maxUsernameLength {
		return apierr.BadRequest("invalid_username", fmt.Errorf("username must be %d-%d characters", minUsernameLength, maxUsernameLength))
	}
	if len(in.Password) < minPasswordLength {
		return apierr.BadRequest("invalid_password", fmt.Errorf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, string, error) {
	if err := validateRegistration(&in); err != nil {
		return nil, "", err
	}
	dbc := dbctx.Context{Ctx: ctx}

	exists, err := as.userRepo.EmailExists(dbc, in.Email)
	if err != nil {
		return nil, "", apierr.Internal("register_failed", err)
	}
	if exists {
		return nil, "", apierr.Conflict("email_taken", fmt.Errorf("email is already registered"))
	}
	exists, err = as.userRepo.UsernameExists(dbc, in.Username)
	if err != nil {
		return nil, "", apierr.Internal("register_failed", err)
	}
	if exists {
		return nil, "", apierr.Conflict("username_taken", fmt.Errorf("username is already taken"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apierr.Internal("register_failed", fmt.Errorf("hash password: %w", err))
	}
	user, err := as.userRepo.Create(dbc, &types.User{
		ID:        uuid.New(),
		Email:     in.Email,
		Username:  in.Username,
		Password:  string(hash),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      "user",
	})
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			// lost a race with a concurrent registration
			return nil, "", apierr.Conflict("email_taken", fmt.Errorf("email or username is already registered"))
		}
		as.log.Error("Failed to create user", "error", err)
		return nil, "", apierr.Internal("register_failed", err)
	}

	token, err := as.generateAccessToken(user)
	if err != nil {
		return nil, "", apierr.Internal("token_failed", err)
	}
	as.log.Info("User registered", "user_id", user.ID.String())
	return user, token, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*types.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", apierr.BadRequest("missing_credentials", fmt.Errorf("email and password are required"))
	}
	user, err := as.userRepo.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return nil, "", apierr.Internal("login_failed", err)
	}
	if user == nil {
		return nil, "", apierr.Unauthorized("invalid_credentials", ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", apierr.Unauthorized("invalid_credentials", ErrInvalidCredentials)
	}
	token, err := as.generateAccessToken(user)
	if err != nil {
		return nil, "", apierr.Internal("token_failed", err)
	}
	return user, token, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        claims.Role,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
