package accountclient

import (
	"context"

	"github.com/reelspro/reelspro/internal/svc/accountsvc"
)

// AccountClient defines the interface for calling the account service.
type AccountClient interface {
	// Register submits a registration. A non-2xx reply is returned as *ResponseError
	// carrying the server's message; transport failures are returned as other errors.
	Register(ctx context.Context, req accountsvc.RegisterRequest) (accountsvc.RegisterResponse, error)
}
