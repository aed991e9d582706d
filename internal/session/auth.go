package session

import (
	"context"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/model"
)

// Authenticator exchanges credentials with the backend of one realm.
type Authenticator interface {
	Login(ctx context.Context, cred Credentials) (model.AuthResult, error)
	Me(ctx context.Context, token string) (model.User, error)
	Logout(ctx context.Context, token string) error
}

// AdminAuth authenticates back-office users.
type AdminAuth struct{ Client *api.Client }

func (a AdminAuth) Login(ctx context.Context, cred Credentials) (model.AuthResult, error) {
	return a.Client.AdminLogin(ctx, api.Credentials{Email: cred.Email, Password: cred.Password})
}

func (a AdminAuth) Me(ctx context.Context, token string) (model.User, error) {
	return a.Client.WithToken(token).AdminMe(ctx)
}

func (a AdminAuth) Logout(ctx context.Context, token string) error {
	return a.Client.WithToken(token).AdminLogout(ctx)
}

// MarketAuth authenticates marketplace buyers and creators.
type MarketAuth struct{ Client *api.Client }

func (a MarketAuth) Login(ctx context.Context, cred Credentials) (model.AuthResult, error) {
	return a.Client.MarketLogin(ctx, api.Credentials{Email: cred.Email, Password: cred.Password})
}

func (a MarketAuth) Me(ctx context.Context, token string) (model.User, error) {
	return a.Client.WithToken(token).MarketMe(ctx)
}

func (a MarketAuth) Logout(ctx context.Context, token string) error {
	return a.Client.WithToken(token).MarketLogout(ctx)
}

// Register creates a marketplace account; the caller opens a session with
// the returned result through Store.Adopt.
func (a MarketAuth) Register(ctx context.Context, r api.Registration) (model.AuthResult, error) {
	return a.Client.MarketRegister(ctx, r)
}
