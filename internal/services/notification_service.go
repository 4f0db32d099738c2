package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pawtraits/internal/models"
	"pawtraits/internal/utils"
	"pawtraits/pkg/email"
	"pawtraits/pkg/logger"
	"pawtraits/pkg/sms"
	"pawtraits/pkg/websocket"

	"github.com/redis/go-redis/v9"
)

const notificationTimeout = 15 * time.Second

// NotificationService delivers commission and payout messages. Every method is best
// effort: failures are logged and never returned.
type NotificationService interface {
	NotifyCommission(ctx context.Context, commission *models.Commission)
	NotifyCreditReleased(ctx context.Context, tx *models.CreditTransaction)
	NotifyPayout(ctx context.Context, payout *models.Payout)
	NotifyCustomerReferred(ctx context.Context, customer *models.Customer)
	PublishLiveEvent(ctx context.Context, event string, data map[string]interface{})

	// RunLiveFeedRelay forwards events published by any instance to the local hub.
	RunLiveFeedRelay(ctx context.Context, source LiveFeedSource) error
}

// LiveFeedBroadcaster is satisfied by *websocket.Hub.
type LiveFeedBroadcaster interface {
	Broadcast(message websocket.Message)
}

// LiveFeedSource is satisfied by *cache.RedisCache.
type LiveFeedSource interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

type NotificationConfig struct {
	SMSFrom  string
	Currency string
	StoreURL string
	// RelayViaRedis publishes live events to Redis instead of the local hub; the relay
	// then fans them out on every instance.
	RelayViaRedis bool
}

type notificationService struct {
	directory OwnerDirectory
	sms       sms.SMSProvider
	mailer    email.Sender
	hub       LiveFeedBroadcaster
	cache     CacheService
	config    NotificationConfig
	logger    *logger.Logger
}

// NewNotificationService accepts nil channels; a nil sms provider, mailer or hub
// disables that channel.
func NewNotificationService(
	directory OwnerDirectory,
	smsProvider sms.SMSProvider,
	mailer email.Sender,
	hub LiveFeedBroadcaster,
	cache CacheService,
	cfg NotificationConfig,
	log *logger.Logger,
) NotificationService {
	return &notificationService{
		directory: directory,
		sms:       smsProvider,
		mailer:    mailer,
		hub:       hub,
		cache:     cache,
		config:    cfg,
		logger:    log,
	}
}

func (s *notificationService) NotifyCommission(ctx context.Context, commission *models.Commission) {
	event := utils.EventCommissionCreated
	if commission.Kind == models.CommissionKindAdjustment {
		event = utils.EventCommissionAdjusted
	}

	s.PublishLiveEvent(ctx, event, map[string]interface{}{
		"commission_id":  commission.ID.Hex(),
		"order_id":       commission.OrderID.Hex(),
		"recipient_type": commission.Recipient.Type,
		"recipient_id":   commission.Recipient.ID.Hex(),
		"level":          commission.Level,
		"amount":         commission.Amount,
		"currency":       commission.Currency,
	})

	if commission.Kind != models.CommissionKindCommission {
		return
	}

	amount := utils.FormatMinorUnits(commission.Amount, s.currency(commission.Currency))
	subject := "You earned a Pawtraits referral commission"
	body := fmt.Sprintf("Good news! An order you referred earned you %s (level %d).", amount, commission.Level)
	if commission.Recipient.Type == models.OwnerTypeCustomer {
		body = fmt.Sprintf("Good news! A friend you referred ordered a portrait. %s in credit will be available once their order is delivered.", amount)
	}

	s.notifyOwner(ctx, commission.Recipient, subject, body)
}

func (s *notificationService) NotifyCreditReleased(ctx context.Context, tx *models.CreditTransaction) {
	s.PublishLiveEvent(ctx, utils.EventCreditReleased, map[string]interface{}{
		"customer_id":   tx.CustomerID.Hex(),
		"amount":        tx.Amount,
		"balance_after": tx.BalanceAfter,
	})

	amount := utils.FormatMinorUnits(tx.Amount, s.currency(""))
	balance := utils.FormatMinorUnits(tx.BalanceAfter, s.currency(""))
	s.notifyOwner(ctx, models.OwnerReference{Type: models.OwnerTypeCustomer, ID: tx.CustomerID},
		"Your Pawtraits credit is ready",
		fmt.Sprintf("%s of referral credit is now available. Your balance is %s. Spend it at %s", amount, balance, s.config.StoreURL),
	)
}

func (s *notificationService) NotifyPayout(ctx context.Context, payout *models.Payout) {
	event := utils.EventPayoutCompleted
	if payout.Status == models.PayoutStatusFailed {
		event = utils.EventPayoutFailed
	}

	s.PublishLiveEvent(ctx, event, map[string]interface{}{
		"payout_id":      payout.ID.Hex(),
		"recipient_type": payout.Recipient.Type,
		"recipient_id":   payout.Recipient.ID.Hex(),
		"amount":         payout.Amount,
		"provider":       payout.Provider,
		"status":         payout.Status,
	})

	if payout.Status != models.PayoutStatusCompleted {
		return
	}

	amount := utils.FormatMinorUnits(payout.Amount, s.currency(payout.Currency))
	s.notifyOwner(ctx, payout.Recipient,
		"Your Pawtraits commission payout is on its way",
		fmt.Sprintf("We have sent %s covering %d commissions via %s.", amount, len(payout.CommissionIDs), payout.Provider),
	)
}

func (s *notificationService) NotifyCustomerReferred(ctx context.Context, customer *models.Customer) {
	if !customer.HasReferrer() {
		return
	}

	s.PublishLiveEvent(ctx, utils.EventCustomerReferred, map[string]interface{}{
		"customer_id":   customer.ID.Hex(),
		"referrer_type": customer.Referrer.Type,
		"referrer_id":   customer.Referrer.ID.Hex(),
		"code":          customer.ReferralCodeUsed,
	})

	s.notifyOwner(ctx, *customer.Referrer,
		"Someone joined Pawtraits with your code",
		fmt.Sprintf("%s just signed up with your referral code %s.", displayName(customer), customer.ReferralCodeUsed),
	)
}

func (s *notificationService) PublishLiveEvent(ctx context.Context, event string, data map[string]interface{}) {
	message := websocket.AdminEvent(event, data)

	if s.config.RelayViaRedis && s.cache != nil {
		err := s.cache.Publish(ctx, utils.LiveFeedChannel, message)
		if err == nil {
			return
		}
		s.logger.WithError(err).WithField("event", event).Warn("Failed to publish live event, delivering locally")
	}

	if s.hub != nil {
		s.hub.Broadcast(message)
	}
}

func (s *notificationService) RunLiveFeedRelay(ctx context.Context, source LiveFeedSource) error {
	if s.hub == nil {
		return nil
	}

	pubsub := source.Subscribe(ctx, utils.LiveFeedChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to live feed: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var message websocket.Message
			if err := json.Unmarshal([]byte(msg.Payload), &message); err != nil {
				s.logger.WithError(err).Warn("Discarding malformed live feed message")
				continue
			}
			s.hub.Broadcast(message)
		}
	}
}

// notifyOwner sends the message by email and SMS where the owner has those contacts.
func (s *notificationService) notifyOwner(ctx context.Context, ref models.OwnerReference, subject, body string) {
	if s.sms == nil && s.mailer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, notificationTimeout)
	defer cancel()

	profile, err := s.directory.GetOwner(ctx, ref)
	if err != nil {
		s.logger.WithError(err).WithField("owner", ref.Key()).Warn("Skipping notification for unknown owner")
		return
	}

	if s.mailer != nil && profile.Email != "" {
		err := s.mailer.Send(ctx, &email.Message{
			To:       profile.Email,
			Subject:  subject,
			TextBody: fmt.Sprintf("Hi %s,\n\n%s\n\nThe Pawtraits team", profile.Name, body),
		})
		if err != nil {
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"owner": ref.Key(),
				"email": utils.MaskEmail(profile.Email),
			}).Warn("Failed to send notification email")
		}
	}

	if s.sms != nil && profile.Phone != "" {
		_, err := s.sms.SendSMS(ctx, &sms.SMSRequest{
			To:      profile.Phone,
			From:    s.config.SMSFrom,
			Message: body,
			Type:    "transactional",
		})
		if err != nil {
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"owner":    ref.Key(),
				"phone":    utils.MaskPhone(profile.Phone),
				"provider": s.sms.Name(),
			}).Warn("Failed to send notification SMS")
		}
	}
}

func (s *notificationService) currency(currency string) string {
	if currency != "" {
		return currency
	}
	if s.config.Currency != "" {
		return s.config.Currency
	}
	return utils.DefaultCurrency
}

func displayName(customer *models.Customer) string {
	if customer.Name != "" {
		return customer.Name
	}
	return utils.MaskEmail(customer.Email)
}
