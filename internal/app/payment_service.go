package app

import (
	"context"
	"fmt"
	"log"

	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/domain"
	"github.com/google/uuid"
)

// PaymentGateway is the external payment collaborator boundary: order
// creation and signature verification happen on the gateway's terms.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (domain.PaymentOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// PaymentService converts a verified payment into the binary access flag on
// the participant's profile. No other payment state is persisted.
type PaymentService struct {
	gateway     PaymentGateway
	profiles    ProfileRepository
	amountPaise int64
	currency    string
	keyID       string
}

func NewPaymentService(gateway PaymentGateway, profiles ProfileRepository, amountPaise int64, currency, keyID string) *PaymentService {
	if currency == "" {
		currency = "INR"
	}
	return &PaymentService{
		gateway:     gateway,
		profiles:    profiles,
		amountPaise: amountPaise,
		currency:    currency,
		keyID:       keyID,
	}
}

// KeyID is the public gateway key the checkout UI embeds.
func (s *PaymentService) KeyID() string { return s.keyID }

// CreateOrder opens a gateway order for the configured contest fee.
func (s *PaymentService) CreateOrder(ctx context.Context, userID string) (domain.PaymentOrder, error) {
	if userID == "" {
		return domain.PaymentOrder{}, domain.ErrParticipantRequired
	}
	receipt := fmt.Sprintf("rcpt_%s", uuid.NewString()[:13])
	order, err := s.gateway.CreateOrder(ctx, s.amountPaise, s.currency, receipt)
	if err != nil {
		return domain.PaymentOrder{}, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// Verify checks the gateway signature and, on success, grants problem-set
// access to the participant.
func (s *PaymentService) Verify(ctx context.Context, userID, orderID, paymentID, signature string) error {
	if userID == "" {
		return domain.ErrParticipantRequired
	}
	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		return domain.ErrInvalidSignature
	}
	if err := s.profiles.GrantAccess(ctx, userID); err != nil {
		// Payment is verified either way; access can be re-granted manually.
		log.Printf("grant access failed for user=%s: %v", userID, err)
	}
	return nil
}
