package dto

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"admin@campuspulse.com"`
	Password string `json:"password" binding:"required" example:"password"`
}

// LoginResponse is returned for every successful login, whichever credential
// path matched.
type LoginResponse struct {
	Role        string `json:"role" example:"teacher" enums:"student,teacher"`
	Email       string `json:"email" example:"admin@campuspulse.com"`
	ID          string `json:"id" example:"admin001"`
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int    `json:"expiresIn" example:"43200"`
}

// ChangeCredentialRequest replaces a student's secret
type ChangeCredentialRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}
