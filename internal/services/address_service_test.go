package services

import (
	"context"
	"testing"

	"shop-service/internal/domain"
	"shop-service/internal/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAddressService(t *testing.T) {
	repo := new(mocks.MockAddressRepository)
	svc := NewAddressService(repo)
	ctx := context.Background()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(a *domain.Address) bool {
		return a.UserID == TestUserID && a.City == "Pune"
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Address).ID = 5
	})
	a, err := svc.Save(ctx, MockIdentity(), MockShippingAddress())
	require.NoError(t, err)
	assert.Equal(t, uint64(5), a.ID)

	incomplete := MockShippingAddress()
	incomplete.Zip = ""
	_, err = svc.Save(ctx, MockIdentity(), incomplete)
	assert.ErrorIs(t, err, ErrInvalidInput)

	repo.On("ListByUser", mock.Anything, TestUserID).Return(nil, nil)
	list, err := svc.List(ctx, MockIdentity())
	require.NoError(t, err)
	assert.NotNil(t, list)

	existing := domain.NewAddress(TestUserID, MockShippingAddress())
	existing.ID = 5
	repo.On("FindByIDForUser", mock.Anything, uint64(5), TestUserID).Return(existing, nil)
	repo.On("FindByIDForUser", mock.Anything, uint64(6), TestUserID).Return(nil, nil)
	repo.On("Update", mock.Anything, existing).Return(nil)

	moved := MockShippingAddress()
	moved.City = "Nashik"
	updated, err := svc.Update(ctx, MockIdentity(), 5, moved)
	require.NoError(t, err)
	assert.Equal(t, "Nashik", updated.City)

	_, err = svc.Update(ctx, MockIdentity(), 6, moved)
	assert.ErrorIs(t, err, ErrAddressNotFound)

	_, err = svc.List(ctx, domain.Identity{})
	assert.ErrorIs(t, err, ErrUnauthorized)
	repo.AssertExpectations(t)
}
