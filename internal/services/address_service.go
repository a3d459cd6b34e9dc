package services

import (
	"context"

	"shop-service/internal/domain"
	"shop-service/internal/repository"
)

type AddressService struct {
	repo repository.AddressRepository
}

func NewAddressService(r repository.AddressRepository) *AddressService {
	return &AddressService{repo: r}
}

func (s *AddressService) Save(ctx context.Context, id domain.Identity, in domain.ShippingAddress) (*domain.Address, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthorized
	}
	if err := validateShipping(in); err != nil {
		return nil, err
	}
	a := domain.NewAddress(id.UserID, in)
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AddressService) List(ctx context.Context, id domain.Identity) ([]domain.Address, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthorized
	}
	out, err := s.repo.ListByUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Address{}
	}
	return out, nil
}

func (s *AddressService) Update(ctx context.Context, id domain.Identity, addressID uint64, in domain.ShippingAddress) (*domain.Address, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthorized
	}
	if err := validateShipping(in); err != nil {
		return nil, err
	}
	a, err := s.repo.FindByIDForUser(ctx, addressID, id.UserID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAddressNotFound
	}
	a.Apply(in)
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
