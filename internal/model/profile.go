package model

// Profile is the public user document created at registration.
type Profile struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	PhotoBase64 string `json:"photo_base64,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// ProfilePatch updates name and photo. Nil fields are left untouched.
type ProfilePatch struct {
	Name        *string `json:"name,omitempty"`
	PhotoBase64 *string `json:"photo_base64,omitempty"`
}

// Settings holds the per-user unlock flags.
type Settings struct {
	UserID               string `json:"user_id"`
	BiometricEnabled     bool   `json:"biometric_enabled"`
	BiometricPrompted    bool   `json:"biometric_prompted"`
	BiometricJustEnabled bool   `json:"biometric_just_enabled"`
	SuppressPrompt       bool   `json:"suppress_prompt"`
}
