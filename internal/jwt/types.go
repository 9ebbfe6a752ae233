package jwt

type Role int

const (
	RoleAgent Role = iota
)

type Agent struct {
	ID    string
	Email string
	Name  string
}

type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}
