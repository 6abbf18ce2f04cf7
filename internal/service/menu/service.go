// Package menu manages the dishes restaurants offer.
package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"foodorder/internal/blob"
	"foodorder/internal/domain"
	"foodorder/internal/live"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type repository interface {
	ListAll(ctx context.Context) ([]domain.MenuItem, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.MenuItem, error)
	GetByID(ctx context.Context, id string) (*domain.MenuItem, error)
	Create(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
	Update(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
	Delete(ctx context.Context, id string) error
}

type imageUploader interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

type publisher interface {
	Publish(ctx context.Context, ev live.Event) error
}

// ErrUploadFailed wraps blob storage failures.
var ErrUploadFailed = errors.New("image upload failed")

type Service struct {
	repo     repository
	uploader imageUploader
	broker   publisher
	logger   zerolog.Logger
	now      func() time.Time
}

func New(repo repository, uploader imageUploader, broker publisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		uploader: uploader,
		broker:   broker,
		logger:   logger.With().Str("component", "menu").Logger(),
		now:      time.Now,
	}
}

// ItemInput is the editable part of a menu item. Price is a decimal string.
type ItemInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	ImageURL    string `json:"imageUrl"`
}

func (s *Service) List(ctx context.Context) ([]domain.MenuItem, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]domain.MenuItem, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.MenuItem, error) {
	return s.repo.GetByID(ctx, id)
}

// Create adds an item for the owner. Name, description and price are required;
// a missing image falls back to the placeholder.
func (s *Service) Create(ctx context.Context, ownerID string, in ItemInput) (*domain.MenuItem, error) {
	in = trim(in)
	if in.Name == "" || in.Description == "" || in.Price == "" {
		return nil, domain.Invalid("Missing Fields", "Please fill in name, description, and price.")
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, err
	}
	image := in.ImageURL
	if image == "" {
		image = domain.PlaceholderImageURL
	}

	item, err := s.repo.Create(ctx, domain.MenuItem{
		OwnerID:     ownerID,
		Name:        in.Name,
		Description: in.Description,
		Price:       price,
		ImageURL:    image,
	})
	if err != nil {
		return nil, fmt.Errorf("create menu item: %w", err)
	}
	s.publish(ctx, "menu.created", item)
	return item, nil
}

// Update edits an item the owner holds. An empty image URL keeps the current one.
func (s *Service) Update(ctx context.Context, ownerID, id string, in ItemInput) (*domain.MenuItem, error) {
	in = trim(in)
	if in.Name == "" || in.Description == "" || in.Price == "" {
		return nil, domain.Invalid("Missing Fields", "Please fill in all required fields.")
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, err
	}

	item, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	item.Name = in.Name
	item.Description = in.Description
	item.Price = price
	if in.ImageURL != "" {
		item.ImageURL = in.ImageURL
	}

	updated, err := s.repo.Update(ctx, *item)
	if err != nil {
		return nil, fmt.Errorf("update menu item: %w", err)
	}
	s.publish(ctx, "menu.updated", updated)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	item, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	s.publish(ctx, "menu.deleted", item)
	return nil
}

// UploadImage stores a new picture for the item and points the item at it.
func (s *Service) UploadImage(ctx context.Context, ownerID, id, contentType string, body io.Reader) (*domain.MenuItem, error) {
	item, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	url, err := s.uploader.Upload(ctx, blob.DishImageName(item.ID, s.now()), contentType, body)
	if err != nil {
		s.logger.Error().Err(err).Str("item_id", id).Msg("upload image")
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	item.ImageURL = url

	updated, err := s.repo.Update(ctx, *item)
	if err != nil {
		return nil, fmt.Errorf("update menu item image: %w", err)
	}
	s.publish(ctx, "menu.updated", updated)
	return updated, nil
}

func (s *Service) owned(ctx context.Context, ownerID, id string) (*domain.MenuItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	return item, nil
}

func (s *Service) publish(ctx context.Context, kind string, item *domain.MenuItem) {
	ev := live.Event{Topic: live.TopicMenu, Kind: kind, ID: item.ID, OwnerIDs: []string{item.OwnerID}}
	if err := s.broker.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("kind", kind).Str("item_id", item.ID).Msg("publish menu change")
	}
}

func parsePrice(s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimPrefix(s, "$"))
	if err != nil || !price.IsPositive() {
		return decimal.Zero, domain.Invalid("Invalid Price", "Please enter a valid price.")
	}
	return price.Round(2), nil
}

func trim(in ItemInput) ItemInput {
	return ItemInput{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       strings.TrimSpace(in.Price),
		ImageURL:    strings.TrimSpace(in.ImageURL),
	}
}
