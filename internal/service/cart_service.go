package service

import (
	"sync"

	"github.com/tzkusman/live-storefront/internal/domain"
)

// cartService keeps every session's cart in memory, keyed by user ID.
// Carts are never persisted and never reconciled with stock levels.
type cartService struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
}

// NewCartService creates a new cart service.
func NewCartService() CartService {
	return &cartService{carts: make(map[string]*domain.Cart)}
}

func (s *cartService) Get(userID string) domain.CartResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.responseLocked(userID)
}

func (s *cartService) Add(userID string, product domain.Product) domain.CartResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[userID]
	if !ok {
		cart = &domain.Cart{}
		s.carts[userID] = cart
	}
	cart.Add(product)
	return s.responseLocked(userID)
}

func (s *cartService) Remove(userID, productID string) domain.CartResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cart, ok := s.carts[userID]; ok {
		cart.Remove(productID)
	}
	return s.responseLocked(userID)
}

func (s *cartService) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}

func (s *cartService) responseLocked(userID string) domain.CartResponse {
	cart, ok := s.carts[userID]
	if !ok {
		return domain.CartResponse{Lines: []domain.CartLine{}}
	}
	lines := make([]domain.CartLine, len(cart.Lines))
	copy(lines, cart.Lines)
	return domain.CartResponse{Lines: lines, Total: cart.Total()}
}
