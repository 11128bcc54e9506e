package service

import (
	"context"
	"fmt"
	"os"

	"library/internal/domain"
	"library/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type BookService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewBookService(repo domain.Repository, logger *zerolog.Logger) *BookService {
	return &BookService{repo: repo, logger: logger}
}

func (s *BookService) ListBooks(ctx context.Context, filter models.BookFilter) ([]*models.Book, error) {
	return s.repo.ListBooks(ctx, filter)
}

func (s *BookService) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	return s.repo.GetBook(ctx, id)
}

// ImportBooks upserts the catalog. Inventory of books that already exist is left untouched.
func (s *BookService) ImportBooks(ctx context.Context, books []*models.Book) (int, error) {
	if err := validateCatalog(books); err != nil {
		return 0, err
	}

	for i, b := range books {
		if err := s.repo.UpsertBook(ctx, b); err != nil {
			return i, fmt.Errorf("import book %d: %w", b.ID, err)
		}
	}

	s.logger.Info().Int("count", len(books)).Msg("Books imported")
	return len(books), nil
}

func validateCatalog(books []*models.Book) error {
	seen := make(map[int64]bool, len(books))
	for _, b := range books {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if seen[b.ID] {
			return fmt.Errorf("%w: duplicate book id %d", domain.ErrValidation, b.ID)
		}
		seen[b.ID] = true
	}
	return nil
}

type bookRecord struct {
	ID        int64  `yaml:"id"`
	Title     string `yaml:"title"`
	Author    string `yaml:"author"`
	Cover     string `yaml:"cover"`
	Inventory int64  `yaml:"inventory"`
	// строкой, чтобы не терять точность
	DailyFee string `yaml:"daily_fee"`
}

// LoadBooksFile reads a YAML catalog of the form `books: [{id, title, author, cover, inventory, daily_fee}]`.
func LoadBooksFile(path string) ([]*models.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file struct {
		Books []bookRecord `yaml:"books"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	books := make([]*models.Book, 0, len(file.Books))
	for _, r := range file.Books {
		fee, err := decimal.NewFromString(r.DailyFee)
		if err != nil {
			return nil, fmt.Errorf("%w: book %d daily_fee %q: %v", domain.ErrValidation, r.ID, r.DailyFee, err)
		}
		books = append(books, &models.Book{
			ID:        r.ID,
			Title:     r.Title,
			Author:    r.Author,
			Cover:     models.Cover(r.Cover),
			Inventory: r.Inventory,
			DailyFee:  fee,
		})
	}
	return books, nil
}
