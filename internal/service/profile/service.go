// Package profile loads and saves the editable profiles of restaurants and
// customers.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodorder/internal/domain"
)

type restaurantRepo interface {
	Get(ctx context.Context, ownerID string) (*domain.Restaurant, error)
	Upsert(ctx context.Context, r domain.Restaurant) (*domain.Restaurant, error)
}

type customerRepo interface {
	Get(ctx context.Context, uid string) (*domain.CustomerProfile, error)
	Upsert(ctx context.Context, p domain.CustomerProfile) (*domain.CustomerProfile, error)
}

type Service struct {
	restaurants restaurantRepo
	customers   customerRepo
}

func New(restaurants restaurantRepo, customers customerRepo) *Service {
	return &Service{restaurants: restaurants, customers: customers}
}

// Restaurant returns the owner's profile, or an empty one when none was saved.
func (s *Service) Restaurant(ctx context.Context, ownerID string) (*domain.Restaurant, error) {
	r, err := s.restaurants.Get(ctx, ownerID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Restaurant{OwnerID: ownerID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load restaurant profile: %w", err)
	}
	return r, nil
}

type RestaurantInput struct {
	RestaurantName string `json:"restaurantName"`
	Description    string `json:"description"`
	PhoneNumber    string `json:"phoneNumber"`
	Address        string `json:"address"`
	Cuisine        string `json:"cuisine"`
	OpeningHours   string `json:"openingHours"`
	OwnerName      string `json:"ownerName"`
}

// SaveRestaurant creates or replaces the owner's profile. Name is required.
func (s *Service) SaveRestaurant(ctx context.Context, ownerID string, in RestaurantInput) (*domain.Restaurant, error) {
	name := strings.TrimSpace(in.RestaurantName)
	if name == "" {
		return nil, domain.Invalid("Required Field", "Restaurant name is required.")
	}
	r, err := s.restaurants.Upsert(ctx, domain.Restaurant{
		OwnerID:        ownerID,
		RestaurantName: name,
		Description:    strings.TrimSpace(in.Description),
		PhoneNumber:    strings.TrimSpace(in.PhoneNumber),
		Address:        strings.TrimSpace(in.Address),
		Cuisine:        strings.TrimSpace(in.Cuisine),
		OpeningHours:   strings.TrimSpace(in.OpeningHours),
		OwnerName:      strings.TrimSpace(in.OwnerName),
	})
	if err != nil {
		return nil, fmt.Errorf("save restaurant profile: %w", err)
	}
	return r, nil
}

func (s *Service) Customer(ctx context.Context, uid string) (*domain.CustomerProfile, error) {
	p, err := s.customers.Get(ctx, uid)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.CustomerProfile{UID: uid}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load customer profile: %w", err)
	}
	return p, nil
}

type CustomerInput struct {
	DisplayName string `json:"displayName"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
}

func (s *Service) SaveCustomer(ctx context.Context, uid string, in CustomerInput) (*domain.CustomerProfile, error) {
	p, err := s.customers.Upsert(ctx, domain.CustomerProfile{
		UID:         uid,
		DisplayName: strings.TrimSpace(in.DisplayName),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Address:     strings.TrimSpace(in.Address),
	})
	if err != nil {
		return nil, fmt.Errorf("save customer profile: %w", err)
	}
	return p, nil
}
