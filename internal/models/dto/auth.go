package dto

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  string `json:"user"`
	Role  string `json:"role"`
	Token string `json:"token,omitempty"`
}

type AddClientRequest struct {
	Gmail    string `json:"gmail"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
