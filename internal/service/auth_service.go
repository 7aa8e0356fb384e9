package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	otp           *auth.OtpManager
	users         storage.UserStore
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, otp *auth.OtpManager, users storage.UserStore, m *metrics.Metrics, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		otp:           otp,
		users:         users,
		metrics:       m,
		logger:        logger,
	}
}

// Register creates a new user account and signs it in.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	if req.Msg.Email == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidEmail)
	}
	if strings.TrimSpace(req.Msg.DisplayName) == "" {
		return nil, invalidArgument("display name is required")
	}

	user, err := s.authenticator.Register(ctx, req.Msg.Email, strings.TrimSpace(req.Msg.DisplayName), req.Msg.Password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Msg.Email, "error", err)
		return nil, toConnectError(ctx, s.metrics, "Register", err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "Register", err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID)
	return connect.NewResponse(&api.RegisterResponse{
		User:  userToAPI(user),
		Token: token,
	}), nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
		}
		return nil, toConnectError(ctx, s.metrics, "Login", err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "Login", err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID)
	return connect.NewResponse(&api.LoginResponse{
		User:  userToAPI(user),
		Token: token,
	}), nil
}

// Logout revokes the caller's token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, req *connect.Request[api.LogoutRequest]) (*connect.Response[api.LogoutResponse], error) {
	claims := middleware.GetClaims(ctx)
	if claims == nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	s.jwtManager.Revoke(claims)

	s.logger.Info("User logged out", "user_id", claims.UserID)
	return connect.NewResponse(&api.LogoutResponse{}), nil
}

// GetCurrentUser returns the authenticated user's account.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		// The account behind a still-valid token is gone.
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
		}
		return nil, toConnectError(ctx, s.metrics, "GetCurrentUser", err)
	}

	return connect.NewResponse(&api.GetCurrentUserResponse{User: userToAPI(user)}), nil
}

// RequestOtp e-mails a one-time code.
func (s *AuthService) RequestOtp(ctx context.Context, req *connect.Request[api.RequestOtpRequest]) (*connect.Response[api.RequestOtpResponse], error) {
	purpose, err := models.ParseOtpPurpose(req.Msg.Purpose)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	s.logger.Info("OTP requested", "email", req.Msg.Email, "purpose", purpose)

	if err := s.otp.Request(ctx, req.Msg.Email, purpose); err != nil {
		s.logger.Warn("OTP request failed", "email", req.Msg.Email, "purpose", purpose, "error", err)
		return nil, toConnectError(ctx, s.metrics, "RequestOtp", err)
	}

	return connect.NewResponse(&api.RequestOtpResponse{
		ExpiresInSeconds: int64(s.otp.ValidFor().Seconds()),
	}), nil
}

// VerifyOtp consumes a code. Signup and login codes sign the user in; a reset
// code is only consumed by ResetPassword.
func (s *AuthService) VerifyOtp(ctx context.Context, req *connect.Request[api.VerifyOtpRequest]) (*connect.Response[api.VerifyOtpResponse], error) {
	purpose, err := models.ParseOtpPurpose(req.Msg.Purpose)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if purpose == models.OtpReset {
		return nil, invalidArgument("reset codes are used with ResetPassword")
	}

	user, err := s.otp.Verify(ctx, req.Msg.Email, req.Msg.Code, purpose)
	if err != nil {
		s.logger.Warn("OTP verification failed", "email", req.Msg.Email, "purpose", purpose, "error", err)
		return nil, toConnectError(ctx, s.metrics, "VerifyOtp", err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		return nil, toConnectError(ctx, s.metrics, "VerifyOtp", err)
	}

	s.logger.Info("OTP verified", "user_id", user.ID, "purpose", purpose)
	return connect.NewResponse(&api.VerifyOtpResponse{
		User:  userToAPI(user),
		Token: token,
	}), nil
}

// ResetPassword sets a new password after verifying a reset code.
func (s *AuthService) ResetPassword(ctx context.Context, req *connect.Request[api.ResetPasswordRequest]) (*connect.Response[api.ResetPasswordResponse], error) {
	// Checked first so a weak password does not burn the code.
	if err := s.authenticator.ValidateCredential(req.Msg.NewPassword); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	user, err := s.otp.Verify(ctx, req.Msg.Email, req.Msg.Code, models.OtpReset)
	if err != nil {
		s.logger.Warn("Password reset rejected", "email", req.Msg.Email, "error", err)
		return nil, toConnectError(ctx, s.metrics, "ResetPassword", err)
	}

	if err := s.authenticator.ChangeCredential(ctx, user.ID, req.Msg.NewPassword); err != nil {
		return nil, toConnectError(ctx, s.metrics, "ResetPassword", err)
	}

	s.logger.Info("Password reset", "user_id", user.ID)
	return connect.NewResponse(&api.ResetPasswordResponse{}), nil
}
