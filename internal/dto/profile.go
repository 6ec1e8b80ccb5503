package dto

// ProfileRequest is used for create and partial update. Nil fields are left as is
// on update.
type ProfileRequest struct {
	DisplayName       *string           `json:"displayName,omitempty"`
	ProfessionalTitle *string           `json:"professionalTitle,omitempty"`
	Bio               *string           `json:"bio,omitempty"`
	Location          *string           `json:"location,omitempty"`
	AvatarURL         *string           `json:"avatarUrl,omitempty"`
	Email             *string           `json:"email,omitempty"`
	SocialLinks       map[string]string `json:"socialLinks,omitempty"`
}
