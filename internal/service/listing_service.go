package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/wind-smp/market-backend/internal/apperr"
	"github.com/wind-smp/market-backend/internal/model"
	"github.com/wind-smp/market-backend/internal/repository"
	"gorm.io/gorm"
)

const (
	listingPriceMax    = 1_000_000
	listingImageMaxLen = 500_000
	defaultCategory    = "custom"
)

var httpURLRe = regexp.MustCompile(`(?i)^https?://`)

type ListingInput struct {
	Title       string
	Description string
	Category    string
	ImageURL    string
	PriceAr     int
}

type ListingService interface {
	Create(ctx context.Context, actor Identity, in ListingInput) (*model.Listing, error)
	Get(ctx context.Context, id string) (*model.Listing, error)
	List(ctx context.Context) ([]model.Listing, error)
	Update(ctx context.Context, actor Identity, id string, in ListingInput) (*model.Listing, error)
	Archive(ctx context.Context, actor Identity, id string) error
}

type listingService struct {
	repo repository.ListingRepository
}

func NewListingService(repo repository.ListingRepository) ListingService {
	return &listingService{repo: repo}
}

func validateListingInput(in *ListingInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if in.Category == "" {
		in.Category = defaultCategory
	}

	if n := utf8.RuneCountInString(in.Title); n < 2 || n > 80 {
		return apperr.Validation("title must be 2 to 80 characters")
	}
	if n := utf8.RuneCountInString(in.Description); n < 5 || n > 500 {
		return apperr.Validation("description must be 5 to 500 characters")
	}
	if n := utf8.RuneCountInString(in.Category); n > 40 {
		return apperr.Validation("category must be at most 40 characters")
	}
	if !validImageURL(in.ImageURL) || len(in.ImageURL) > listingImageMaxLen {
		return apperr.Validation("image must be an http(s) URL or a data:image/* URI")
	}
	if in.PriceAr <= 0 || in.PriceAr > listingPriceMax {
		return apperr.Validation("price must be an integer between 1 and 1000000")
	}
	return nil
}

func validImageURL(value string) bool {
	if strings.HasPrefix(value, "data:image/") {
		return true
	}
	return httpURLRe.MatchString(value)
}

func (s *listingService) Create(ctx context.Context, actor Identity, in ListingInput) (*model.Listing, error) {
	if err := validateListingInput(&in); err != nil {
		return nil, err
	}
	listing := &model.Listing{
		ID:          uuid.NewString(),
		OwnerID:     actor.ID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		PriceAr:     in.PriceAr,
	}
	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return s.Get(ctx, listing.ID)
}

func (s *listingService) Get(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.WithMessage(apperr.ErrNotFound, "listing not found")
		}
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return listing, nil
}

func (s *listingService) List(ctx context.Context) ([]model.Listing, error) {
	list, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return list, nil
}

func (s *listingService) Update(ctx context.Context, actor Identity, id string, in ListingInput) (*model.Listing, error) {
	listing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != actor.ID && !actor.IsAdmin() {
		return nil, apperr.WithMessage(apperr.ErrForbidden, "only the owner can edit this listing")
	}
	if err := validateListingInput(&in); err != nil {
		return nil, err
	}
	listing.Title = in.Title
	listing.Description = in.Description
	listing.Category = in.Category
	listing.ImageURL = in.ImageURL
	listing.PriceAr = in.PriceAr
	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return s.Get(ctx, id)
}

// Archive hides a listing from the catalog; rows are never deleted so
// existing requests keep their listing reference.
func (s *listingService) Archive(ctx context.Context, actor Identity, id string) error {
	listing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if listing.OwnerID != actor.ID && !actor.IsAdmin() {
		return apperr.WithMessage(apperr.ErrForbidden, "only the owner can archive this listing")
	}
	listing.IsArchived = true
	if err := s.repo.Update(ctx, listing); err != nil {
		return apperr.Wrap(err, apperr.ErrInternal)
	}
	return nil
}
