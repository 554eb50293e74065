package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/alexedwards/argon2id"
	"github.com/guardianlink/guardianlink360/internal/domain"
	"github.com/guardianlink/guardianlink360/internal/notifier"
	"github.com/guardianlink/guardianlink360/internal/repository"
	"github.com/guardianlink/guardianlink360/pkg/auth"
	"github.com/guardianlink/guardianlink360/pkg/config"
	"github.com/guardianlink/guardianlink360/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	RequestOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, otp string) (*domain.LoginResponse, error)
	GetUser(ctx context.Context, phone string) (*domain.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	otpStore repository.OTPStore
	notifier notifier.Service
	config   *config.Config
}

func NewAuthService(
	userRepo repository.UserRepository,
	otpStore repository.OTPStore,
	notifierSvc notifier.Service,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo: userRepo,
		otpStore: otpStore,
		notifier: notifierSvc,
		config:   cfg,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByPhone(ctx, req.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: phone already registered", domain.ErrValidation)
	}

	user, err := s.userRepo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.InfoContext(ctx, "User registered", "phone", user.Phone, "role", user.Role)
	return user, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// RequestOTP issues a six-digit code to a registered phone. Only the argon2id
// hash is stored, with TTL-driven expiry.
func (s *authService) RequestOTP(ctx context.Context, phone string) error {
	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: phone number not registered", domain.ErrNotFound)
	}

	otp, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}

	hash, err := argon2id.CreateHash(otp, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash OTP: %w", err)
	}
	if err := s.otpStore.Save(ctx, phone, hash, s.config.Auth.OTPTTL); err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	if err := s.notifier.SendOTP(ctx, phone, otp); err != nil {
		return fmt.Errorf("failed to send OTP: %w", err)
	}

	logger.InfoContext(ctx, "OTP sent", "phone", phone)
	return nil
}

// VerifyOTP checks a code against the stored hash. Codes are single-use: a
// successful or exhausted check clears the stored hash.
func (s *authService) VerifyOTP(ctx context.Context, phone, otp string) (*domain.LoginResponse, error) {
	hash, err := s.otpStore.Get(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to read OTP: %w", err)
	}
	if hash == "" {
		return nil, fmt.Errorf("%w: no active code for this number, request a new one", domain.ErrValidation)
	}

	match, err := argon2id.ComparePasswordAndHash(otp, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to check OTP: %w", err)
	}
	if !match {
		return nil, fmt.Errorf("%w: wrong code", domain.ErrValidation)
	}

	if err := s.otpStore.Delete(ctx, phone); err != nil {
		logger.WarnContext(ctx, "Failed to clear used OTP", "error", err, "phone", phone)
	}

	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}

	token, err := auth.NewToken(user.Phone, user.Name, string(user.Role), s.config.Auth.JWTSecret, s.config.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	logger.InfoContext(ctx, "OTP login", "phone", user.Phone, "role", user.Role)
	return &domain.LoginResponse{
		Success: true,
		Message: "Login successful",
		Token:   token,
		User:    user,
	}, nil
}

func (s *authService) GetUser(ctx context.Context, phone string) (*domain.User, error) {
	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}
	return user, nil
}
