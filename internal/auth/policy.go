package auth

import (
	"context"
	"fmt"

	"github.com/serroba/short-links/internal/shortener"
)

// OwnerPolicy lets anyone modify anonymous links and only the owner modify owned ones.
type OwnerPolicy struct{}

func (OwnerPolicy) Authorize(_ context.Context, requester shortener.OwnerID, link *shortener.Link) error {
	if link.Owner == "" || link.Owner == requester {
		return nil
	}

	return fmt.Errorf("%w: %q is not the owner of %q", shortener.ErrForbidden, requester, link.Code)
}

var _ shortener.Authorizer = OwnerPolicy{}
