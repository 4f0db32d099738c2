package services

import (
	"context"
	"errors"
	"fmt"

	"pawtraits/internal/models"
	"pawtraits/internal/repositories/interfaces"
	"pawtraits/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AttributionService interface {
	ResolveAttributionChain(ctx context.Context, customerID primitive.ObjectID) (models.AttributionChain, error)
	ResolveChainFromOwner(ctx context.Context, owner models.OwnerReference, purchaserID primitive.ObjectID) (models.AttributionChain, error)
	ChainContains(ctx context.Context, owner models.OwnerReference, id primitive.ObjectID) (bool, error)
}

type attributionService struct {
	customers interfaces.CustomerRepository
	directory OwnerDirectory
	maxDepth  int
	logger    *logger.Logger
}

func NewAttributionService(
	customers interfaces.CustomerRepository,
	directory OwnerDirectory,
	maxDepth int,
	log *logger.Logger,
) AttributionService {
	if maxDepth < 1 {
		maxDepth = 10
	}
	return &attributionService{
		customers: customers,
		directory: directory,
		maxDepth:  maxDepth,
		logger:    log,
	}
}

// ResolveAttributionChain walks the customer's referrer pointers nearest first.
// A customer without a referrer yields an empty chain.
func (s *attributionService) ResolveAttributionChain(ctx context.Context, customerID primitive.ObjectID) (models.AttributionChain, error) {
	customer, err := s.customers.GetCustomerByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return emptyChain(), fmt.Errorf("%w: customer %s", ErrNotFound, customerID.Hex())
		}
		return emptyChain(), err
	}

	if !customer.HasReferrer() {
		return emptyChain(), nil
	}

	return s.walk(ctx, *customer.Referrer, customerID)
}

// ResolveChainFromOwner starts the walk at a code owner. The purchaser is treated as
// already visited so a code that leads back to the purchaser never pays them.
func (s *attributionService) ResolveChainFromOwner(ctx context.Context, owner models.OwnerReference, purchaserID primitive.ObjectID) (models.AttributionChain, error) {
	return s.walk(ctx, owner, purchaserID)
}

// ChainContains reports whether id appears anywhere in the chain that starts at owner.
func (s *attributionService) ChainContains(ctx context.Context, owner models.OwnerReference, id primitive.ObjectID) (bool, error) {
	if owner.ID == id {
		return true, nil
	}
	chain, err := s.walk(ctx, owner, primitive.NilObjectID)
	if err != nil {
		return false, err
	}
	for _, link := range chain.Links {
		if link.OwnerID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *attributionService) walk(ctx context.Context, start models.OwnerReference, purchaserID primitive.ObjectID) (models.AttributionChain, error) {
	chain := emptyChain()

	visited := make(map[primitive.ObjectID]bool, s.maxDepth+1)
	if !purchaserID.IsZero() {
		visited[purchaserID] = true
	}

	next := &start
	for level := 1; next != nil; level++ {
		if level > s.maxDepth {
			chain.StopReason = models.StopReasonMaxDepth
			s.logWalkStop(chain, *next, "Attribution chain reached depth bound")
			break
		}
		if visited[next.ID] {
			chain.StopReason = models.StopReasonCycle
			s.logWalkStop(chain, *next, "Attribution chain revisited an owner")
			break
		}
		visited[next.ID] = true

		profile, err := s.directory.GetOwner(ctx, *next)
		if err != nil {
			if errors.Is(err, ErrOwnerNotFound) {
				chain.Partial = true
				chain.StopReason = models.StopReasonDanglingReferrer
				s.logger.WithError(ErrPartialAttribution).WithFields(map[string]interface{}{
					"owner_type": next.Type,
					"owner_id":   next.ID.Hex(),
					"level":      level,
					"links":      len(chain.Links),
				}).Warn("Attribution stopped at a dangling referrer")
				break
			}
			return chain, fmt.Errorf("failed to resolve attribution level %d: %w", level, err)
		}

		rate := next.CommissionRateBps
		if rate == 0 {
			rate = profile.Reference.CommissionRateBps
		}
		chain.Links = append(chain.Links, models.AttributionLink{
			OwnerType:         next.Type,
			OwnerID:           next.ID,
			Level:             level,
			CommissionRateBps: rate,
		})

		if next.Type.IsTerminal() {
			break
		}
		next = profile.Referrer
	}

	return chain, nil
}

func (s *attributionService) logWalkStop(chain models.AttributionChain, at models.OwnerReference, msg string) {
	s.logger.WithFields(map[string]interface{}{
		"stop_reason": chain.StopReason,
		"owner_type":  at.Type,
		"owner_id":    at.ID.Hex(),
		"links":       len(chain.Links),
	}).Warn(msg)
}

func emptyChain() models.AttributionChain {
	return models.AttributionChain{
		Links:      []models.AttributionLink{},
		StopReason: models.StopReasonNone,
	}
}
