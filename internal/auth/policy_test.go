package auth_test

import (
	"context"
	"testing"

	"github.com/serroba/short-links/internal/auth"
	"github.com/serroba/short-links/internal/shortener"
	"github.com/stretchr/testify/assert"
)

func TestOwnerPolicy(t *testing.T) {
	ctx := context.Background()
	policy := auth.OwnerPolicy{}

	tests := []struct {
		name      string
		owner     shortener.OwnerID
		requester shortener.OwnerID
		wantErr   bool
	}{
		{name: "anonymous link, anonymous requester", owner: "", requester: ""},
		{name: "anonymous link, any requester", owner: "", requester: "bob"},
		{name: "owner", owner: "alice", requester: "alice"},
		{name: "other user", owner: "alice", requester: "bob", wantErr: true},
		{name: "anonymous requester on owned link", owner: "alice", requester: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Authorize(ctx, tt.requester, &shortener.Link{Code: "abc123", Owner: tt.owner})

			if tt.wantErr {
				assert.ErrorIs(t, err, shortener.ErrForbidden)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
