package auth

import (
	"context"

	"github.com/SAP-F-2025/dump-practice-service/internal/config"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
)

// CasdoorVerifier accepts tokens issued by a casdoor application
type CasdoorVerifier struct{}

func NewCasdoorVerifier(cfg config.CasdoorConfig) *CasdoorVerifier {
	casdoorsdk.InitConfig(cfg.Endpoint, cfg.ClientID, cfg.ClientSecret, cfg.Certificate, cfg.OrganizationName, cfg.ApplicationName)
	return &CasdoorVerifier{}
}

func (v *CasdoorVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	claims, err := casdoorsdk.ParseJwtToken(token)
	if err != nil || claims.Id == "" {
		return nil, ErrInvalidToken
	}
	role := models.RoleUser
	if claims.IsAdmin {
		role = models.RoleAdmin
	}
	return &Identity{
		UserID:   claims.Id,
		Username: claims.Name,
		Email:    claims.Email,
		Role:     role,
	}, nil
}
