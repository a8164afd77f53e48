package domain

import "time"

// User is the profile stored next to the identity provider account.
// UserID is the provider's subject identifier.
type User struct {
	UserID    string    `bson:"_id" json:"userId"`
	Email     string    `bson:"email" json:"email"`
	Name      string    `bson:"name,omitempty" json:"name,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// AuthTokens is what a successful login hands back to the client.
type AuthTokens struct {
	AccessToken  string `json:"AccessToken"`
	IdToken      string `json:"IdToken"`
	RefreshToken string `json:"RefreshToken,omitempty"`
	TokenType    string `json:"TokenType"`
	ExpiresIn    int32  `json:"ExpiresIn"`
}
