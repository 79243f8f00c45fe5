package views

import (
	"context"

	"github.com/AdamBeresnev/tiebreak/internal/middleware"
	users "github.com/AdamBeresnev/tiebreak/internal/user"
)

func GetUser(ctx context.Context) *users.User {
	return middleware.GetAuthenticatedUser(ctx)
}
