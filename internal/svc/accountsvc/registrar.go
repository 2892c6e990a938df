package accountsvc

import (
	"context"

	"github.com/reelspro/reelspro/internal/domain"
)

//go:generate mockgen -source=registrar.go -destination=mocks/mocks.go -package=mocks Registrar

// Registrar creates accounts on behalf of the registration endpoint.
type Registrar interface {
	CreateAccount(ctx context.Context, email, plaintextPassword string) (domain.Account, error)
}
