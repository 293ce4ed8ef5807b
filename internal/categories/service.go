package categories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sehaty-app/sehaty/internal/platform/httpx"
)

// Service wraps taxonomy rules and the tree cache.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Create inserts a category and invalidates the cached trees.
func (s *Service) Create(ctx context.Context, c *Category) (*Category, error) {
	if c.ParentID != nil {
		if _, err := s.repo.Get(ctx, *c.ParentID); err != nil {
			return nil, fmt.Errorf("parent category: %w", err)
		}
	}
	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.repo.Get(ctx, id)
}

// Update rewrites a category and invalidates the cached trees. A
// category cannot become its own parent.
func (s *Service) Update(ctx context.Context, c *Category) (*Category, error) {
	if c.ParentID != nil && *c.ParentID == c.ID {
		return nil, fmt.Errorf("%w: category cannot parent itself", httpx.ErrValidation)
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.repo.Get(ctx, c.ID)
}

// Delete removes a category and invalidates the cached trees.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Get returns one category with both titles.
func (s *Service) Get(ctx context.Context, id int64) (*Category, error) {
	return s.repo.Get(ctx, id)
}

// List returns the flat taxonomy with both titles, for admin screens.
func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.ListAll(ctx)
}

// Tree returns the localized taxonomy tree, served from cache when warm.
func (s *Service) Tree(ctx context.Context, lang string) ([]*Node, error) {
	key, err := s.cache.TreeKey(ctx, lang)
	if err != nil {
		return nil, err
	}
	var tree []*Node
	err = s.cache.FetchJSON(ctx, key, &tree, func(ctx context.Context) (any, error) {
		flat, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		return buildTree(flat, lang), nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump category cache", slog.Any("error", err))
	}
}

func buildTree(flat []Category, lang string) []*Node {
	nodes := make(map[int64]*Node, len(flat))
	for _, c := range flat {
		nodes[c.ID] = &Node{ID: c.ID, Title: c.Title().Pick(lang)}
	}
	var roots []*Node
	for _, c := range flat {
		node := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*c.ParentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots
}
