package service

import (
	"context"
	"errors"
	"strings"

	"github.com/korg1OOO/baratosociais/internal/cart"
	"github.com/korg1OOO/baratosociais/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	sessions *SessionStore
	catalog  CatalogService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(sessions *SessionStore, catalog CatalogService, validate *validator.Validate, logger zerolog.Logger) CartService {
	return &cartService{
		sessions: sessions,
		catalog:  catalog,
		validate: validate,
		logger:   logger.With().Str("service", "cart").Logger(),
	}
}

// Get returns the cart of a session.
func (s *cartService) Get(_ context.Context, sessionID string) model.CartView {
	sess, release := s.sessions.Acquire(sessionID)
	defer release()
	return sess.Cart.View()
}

// Add puts a service in the cart or increments an existing line.
func (s *cartService) Add(ctx context.Context, sessionID string, req model.AddToCartRequest) (model.CartView, error) {
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.Link = strings.TrimSpace(req.Link)

	if err := s.validate.Struct(req); err != nil {
		return model.CartView{}, requestError(err)
	}

	quantity, err := cart.ParseQuantity(string(req.Quantity))
	if err != nil {
		return model.CartView{}, err
	}

	svc, err := s.catalog.Get(ctx, req.ServiceID)
	if err != nil {
		s.logger.Debug().Str("service_id", req.ServiceID).Msg("add to cart for unknown service")
		return model.CartView{}, err
	}

	sess, release := s.sessions.Acquire(sessionID)
	defer release()

	line, err := sess.Cart.Add(*svc, quantity, req.Link)
	if err != nil {
		return model.CartView{}, err
	}

	s.logger.Debug().
		Str("service_id", svc.ID).
		Str("quantity", line.Quantity.String()).
		Int("lines", sess.Cart.Len()).
		Msg("cart line added")

	return sess.Cart.View(), nil
}

// SetQuantity changes the quantity of the lines addressed by serviceID and link.
// A quantity below the service minimum removes the lines.
func (s *cartService) SetQuantity(_ context.Context, sessionID, serviceID string, req model.UpdateCartLineRequest) (model.CartView, error) {
	if err := s.validate.Struct(req); err != nil {
		return model.CartView{}, requestError(err)
	}

	quantity, err := cart.ParseQuantity(string(req.Quantity))
	if err != nil {
		return model.CartView{}, err
	}

	sess, release := s.sessions.Acquire(sessionID)
	defer release()

	removed, err := sess.Cart.SetQuantity(serviceID, strings.TrimSpace(req.Link), quantity)
	if err != nil {
		return model.CartView{}, err
	}
	if removed > 0 {
		s.logger.Debug().Str("service_id", serviceID).Int("removed", removed).Msg("cart lines removed below minimum")
	}

	return sess.Cart.View(), nil
}

// Remove deletes the lines addressed by serviceID and link.
func (s *cartService) Remove(_ context.Context, sessionID, serviceID, link string) model.CartView {
	sess, release := s.sessions.Acquire(sessionID)
	defer release()

	sess.Cart.Remove(serviceID, strings.TrimSpace(link))
	return sess.Cart.View()
}

// requestError maps validator failures onto domain errors. A missing link has
// its own code so the storefront can point at the link field.
func requestError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.ErrMissingField.Wrap(err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Field() == "link" {
			return model.ErrMissingLink
		}
		fields = append(fields, fe.Field())
	}
	return model.ErrMissingField.WithMessage("Missing required fields: %s", strings.Join(fields, ", "))
}
