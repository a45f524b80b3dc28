package models

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type AnalyzeTextRequest struct {
	Text string `json:"text" form:"text" query:"text"`
}
