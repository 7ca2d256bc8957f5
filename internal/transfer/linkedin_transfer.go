package transfer

type LinkedinTokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

type LinkedinUserInfo struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

type LinkedinOrganizationAcl struct {
	Organization string `json:"organization"`
	Role         string `json:"role"`
	State        string `json:"state"`
}

type LinkedinOrganizationAcls struct {
	Elements []LinkedinOrganizationAcl `json:"elements"`
}
