package api

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// RequestOtpRequest asks for a code. Purpose is signup, login or reset.
type RequestOtpRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

type RequestOtpResponse struct {
	ExpiresInSeconds int64 `json:"expiresInSeconds"`
}

type VerifyOtpRequest struct {
	Email   string `json:"email"`
	Code    string `json:"code"`
	Purpose string `json:"purpose"`
}

// VerifyOtpResponse carries a session token for login and signup codes.
type VerifyOtpResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token,omitempty"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

type ResetPasswordResponse struct{}
