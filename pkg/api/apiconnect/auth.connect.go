package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	api "github.com/mmynk/settleup/pkg/api"
)

// AuthServiceName is the fully-qualified name of the AuthService.
const AuthServiceName = "settleup.v1.AuthService"

const (
	AuthServiceRegisterProcedure       = "/settleup.v1.AuthService/Register"
	AuthServiceLoginProcedure          = "/settleup.v1.AuthService/Login"
	AuthServiceLogoutProcedure         = "/settleup.v1.AuthService/Logout"
	AuthServiceGetCurrentUserProcedure = "/settleup.v1.AuthService/GetCurrentUser"
	AuthServiceRequestOtpProcedure     = "/settleup.v1.AuthService/RequestOtp"
	AuthServiceVerifyOtpProcedure      = "/settleup.v1.AuthService/VerifyOtp"
	AuthServiceResetPasswordProcedure  = "/settleup.v1.AuthService/ResetPassword"
)

// AuthServiceHandler is implemented by the server. Register, login and one-time codes.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error)
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error)
	Logout(context.Context, *connect.Request[api.LogoutRequest]) (*connect.Response[api.LogoutResponse], error)
	GetCurrentUser(context.Context, *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error)
	RequestOtp(context.Context, *connect.Request[api.RequestOtpRequest]) (*connect.Response[api.RequestOtpResponse], error)
	VerifyOtp(context.Context, *connect.Request[api.VerifyOtpRequest]) (*connect.Response[api.VerifyOtpResponse], error)
	ResetPassword(context.Context, *connect.Request[api.ResetPasswordRequest]) (*connect.Response[api.ResetPasswordResponse], error)
}

// NewAuthServiceHandler returns the path prefix to mount and its handler.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return serviceHandler(AuthServiceName, map[string]http.Handler{
		AuthServiceRegisterProcedure:       connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...),
		AuthServiceLoginProcedure:          connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...),
		AuthServiceLogoutProcedure:         connect.NewUnaryHandler(AuthServiceLogoutProcedure, svc.Logout, opts...),
		AuthServiceGetCurrentUserProcedure: connect.NewUnaryHandler(AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts...),
		AuthServiceRequestOtpProcedure:     connect.NewUnaryHandler(AuthServiceRequestOtpProcedure, svc.RequestOtp, opts...),
		AuthServiceVerifyOtpProcedure:      connect.NewUnaryHandler(AuthServiceVerifyOtpProcedure, svc.VerifyOtp, opts...),
		AuthServiceResetPasswordProcedure:  connect.NewUnaryHandler(AuthServiceResetPasswordProcedure, svc.ResetPassword, opts...),
	})
}

// AuthServiceClient calls the AuthService.
type AuthServiceClient interface {
	Register(context.Context, *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error)
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error)
	Logout(context.Context, *connect.Request[api.LogoutRequest]) (*connect.Response[api.LogoutResponse], error)
	GetCurrentUser(context.Context, *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error)
	RequestOtp(context.Context, *connect.Request[api.RequestOtpRequest]) (*connect.Response[api.RequestOtpResponse], error)
	VerifyOtp(context.Context, *connect.Request[api.VerifyOtpRequest]) (*connect.Response[api.VerifyOtpResponse], error)
	ResetPassword(context.Context, *connect.Request[api.ResetPasswordRequest]) (*connect.Response[api.ResetPasswordResponse], error)
}

// NewAuthServiceClient creates a client for the service at baseURL, e.g. http://localhost:8080.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	opts = clientOptions(opts)
	return &authServiceClient{
		register:       connect.NewClient[api.RegisterRequest, api.RegisterResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		login:          connect.NewClient[api.LoginRequest, api.LoginResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
		logout:         connect.NewClient[api.LogoutRequest, api.LogoutResponse](httpClient, baseURL+AuthServiceLogoutProcedure, opts...),
		getCurrentUser: connect.NewClient[api.GetCurrentUserRequest, api.GetCurrentUserResponse](httpClient, baseURL+AuthServiceGetCurrentUserProcedure, opts...),
		requestOtp:     connect.NewClient[api.RequestOtpRequest, api.RequestOtpResponse](httpClient, baseURL+AuthServiceRequestOtpProcedure, opts...),
		verifyOtp:      connect.NewClient[api.VerifyOtpRequest, api.VerifyOtpResponse](httpClient, baseURL+AuthServiceVerifyOtpProcedure, opts...),
		resetPassword:  connect.NewClient[api.ResetPasswordRequest, api.ResetPasswordResponse](httpClient, baseURL+AuthServiceResetPasswordProcedure, opts...),
	}
}

type authServiceClient struct {
	register       *connect.Client[api.RegisterRequest, api.RegisterResponse]
	login          *connect.Client[api.LoginRequest, api.LoginResponse]
	logout         *connect.Client[api.LogoutRequest, api.LogoutResponse]
	getCurrentUser *connect.Client[api.GetCurrentUserRequest, api.GetCurrentUserResponse]
	requestOtp     *connect.Client[api.RequestOtpRequest, api.RequestOtpResponse]
	verifyOtp      *connect.Client[api.VerifyOtpRequest, api.VerifyOtpResponse]
	resetPassword  *connect.Client[api.ResetPasswordRequest, api.ResetPasswordResponse]
}

func (c *authServiceClient) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *authServiceClient) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *authServiceClient) Logout(ctx context.Context, req *connect.Request[api.LogoutRequest]) (*connect.Response[api.LogoutResponse], error) {
	return c.logout.CallUnary(ctx, req)
}

func (c *authServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

func (c *authServiceClient) RequestOtp(ctx context.Context, req *connect.Request[api.RequestOtpRequest]) (*connect.Response[api.RequestOtpResponse], error) {
	return c.requestOtp.CallUnary(ctx, req)
}

func (c *authServiceClient) VerifyOtp(ctx context.Context, req *connect.Request[api.VerifyOtpRequest]) (*connect.Response[api.VerifyOtpResponse], error) {
	return c.verifyOtp.CallUnary(ctx, req)
}

func (c *authServiceClient) ResetPassword(ctx context.Context, req *connect.Request[api.ResetPasswordRequest]) (*connect.Response[api.ResetPasswordResponse], error) {
	return c.resetPassword.CallUnary(ctx, req)
}
