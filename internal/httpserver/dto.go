package httpserver

import (
	"github.com/guregu/null/v5"

	"github.com/Skotchmaster/ticket_service/internal/models"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type confirmLoginRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

type ticketCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// ticketUpdateRequest distinguishes absent fields from empty ones, so a
// PUT only touches what the client actually sent.
type ticketUpdateRequest struct {
	Title       null.String `json:"title"`
	Description null.String `json:"description"`
	Status      null.String `json:"status"`
}

type ticketListResponse struct {
	Tickets []models.Ticket `json:"tickets"`
	Total   int64           `json:"total"`
	Skip    int             `json:"skip"`
	Limit   int             `json:"limit"`
}
