package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pawtraits/internal/config"
	"pawtraits/internal/models"
	"pawtraits/internal/repositories/interfaces"
	"pawtraits/internal/utils"
	"pawtraits/pkg/cache"
	"pawtraits/pkg/logger"
	"pawtraits/pkg/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryStore implements every repository interface over maps.
type memoryStore struct {
	mu sync.Mutex

	partners     map[primitive.ObjectID]*models.Partner
	influencers  map[primitive.ObjectID]*models.Influencer
	customers    map[primitive.ObjectID]*models.Customer
	codes        map[string]*models.ReferralCode
	orders       map[primitive.ObjectID]*models.Order
	commissions  []*models.Commission
	credits      map[primitive.ObjectID]*models.CustomerCredit
	transactions []*models.CreditTransaction
	referrals    []*models.Referral
	payouts      map[primitive.ObjectID]*models.Payout

	markPaidErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		partners:    make(map[primitive.ObjectID]*models.Partner),
		influencers: make(map[primitive.ObjectID]*models.Influencer),
		customers:   make(map[primitive.ObjectID]*models.Customer),
		codes:       make(map[string]*models.ReferralCode),
		orders:      make(map[primitive.ObjectID]*models.Order),
		credits:     make(map[primitive.ObjectID]*models.CustomerCredit),
		payouts:     make(map[primitive.ObjectID]*models.Payout),
	}
}

func (m *memoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func paginate[T any](items []T, params *utils.PaginationParams) ([]T, int64) {
	total := int64(len(items))
	if params == nil {
		params = utils.DefaultPaginationParams()
	}
	page, size := params.Page, params.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = utils.DefaultPageSize
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}, total
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total
}

func inRange(at time.Time, from, to *time.Time) bool {
	if from != nil && at.Before(*from) {
		return false
	}
	if to != nil && !at.Before(*to) {
		return false
	}
	return true
}

// Partners and influencers

func (m *memoryStore) CreatePartner(ctx context.Context, partner *models.Partner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.partners {
		if p.Email == partner.Email {
			return interfaces.ErrDuplicateKey
		}
	}
	if partner.ID.IsZero() {
		partner.ID = primitive.NewObjectID()
	}
	m.partners[partner.ID] = partner
	return nil
}

func (m *memoryStore) GetPartnerByID(ctx context.Context, id primitive.ObjectID) (*models.Partner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.partners[id]; ok {
		return p, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStore) ListPartners(ctx context.Context, params *utils.PaginationParams) ([]*models.Partner, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.Partner
	for _, p := range m.partners {
		all = append(all, p)
	}
	page, total := paginate(all, params)
	return page, total, nil
}

func (m *memoryStore) UpdatePartner(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partners[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if active, ok := updates["is_active"].(bool); ok {
		p.IsActive = active
	}
	return nil
}

func (m *memoryStore) CreateInfluencer(ctx context.Context, influencer *models.Influencer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if influencer.ID.IsZero() {
		influencer.ID = primitive.NewObjectID()
	}
	m.influencers[influencer.ID] = influencer
	return nil
}

func (m *memoryStore) GetInfluencerByID(ctx context.Context, id primitive.ObjectID) (*models.Influencer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.influencers[id]; ok {
		return i, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStore) ListInfluencers(ctx context.Context, params *utils.PaginationParams) ([]*models.Influencer, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.Influencer
	for _, i := range m.influencers {
		all = append(all, i)
	}
	page, total := paginate(all, params)
	return page, total, nil
}

func (m *memoryStore) UpdateInfluencer(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.influencers[id]; !ok {
		return interfaces.ErrNotFound
	}
	return nil
}

// Customers

func (m *memoryStore) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.Email == customer.Email {
			return interfaces.ErrDuplicateKey
		}
	}
	if customer.ID.IsZero() {
		customer.ID = primitive.NewObjectID()
	}
	customer.CreatedAt = time.Now()
	m.customers[customer.ID] = customer
	return nil
}

func (m *memoryStore) GetCustomerByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.customers[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStore) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.Email == email {
			copied := *c
			return &copied, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStore) SetReferrer(ctx context.Context, id primitive.ObjectID, referrer models.OwnerReference, code string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if c.HasReferrer() {
		return interfaces.ErrConditionFailed
	}
	ref := referrer
	c.Referrer = &ref
	c.ReferralCodeUsed = code
	c.ReferredAt = &at
	c.ReferralType = referrer.Type
	return nil
}

func (m *memoryStore) SetPersonalCode(ctx context.Context, id primitive.ObjectID, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	c.PersonalReferralCode = code
	return nil
}

func (m *memoryStore) CountCustomersByReferrer(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.customers {
		if c.HasReferrer() && c.Referrer.ID == ownerID {
			n++
		}
	}
	return n, nil
}

// Referral codes

func (m *memoryStore) CreateCode(ctx context.Context, code *models.ReferralCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.codes[code.Code]; exists {
		return interfaces.ErrDuplicateKey
	}
	if code.ID.IsZero() {
		code.ID = primitive.NewObjectID()
	}
	code.CreatedAt = time.Now()
	m.codes[code.Code] = code
	return nil
}

func (m *memoryStore) GetCodeByID(ctx context.Context, id primitive.ObjectID) (*models.ReferralCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.codes {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStore) GetCodeByString(ctx context.Context, code string) (*models.ReferralCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.codes[code]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStore) CodeExists(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.codes[code]
	return ok, nil
}

func (m *memoryStore) GetCodesByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]*models.ReferralCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ReferralCode
	for _, c := range m.codes {
		if c.Owner.ID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryStore) ListCodes(ctx context.Context, ownerType *models.OwnerType, params *utils.PaginationParams) ([]*models.ReferralCode, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.ReferralCode
	for _, c := range m.codes {
		if ownerType == nil || c.Owner.Type == *ownerType {
			all = append(all, c)
		}
	}
	page, total := paginate(all, params)
	return page, total, nil
}

func (m *memoryStore) CountActiveCodesByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.codes {
		if c.Owner.ID == ownerID && c.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) SetCodeActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.ReferralCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.codes {
		if c.ID == id {
			c.IsActive = active
			return c, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStore) IncrementUsage(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok {
		return interfaces.ErrNotFound
	}
	c.UsageCount++
	return nil
}

// Orders

func (m *memoryStore) CreateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	order.CreatedAt = time.Now()
	m.orders[order.ID] = order
	return nil
}

func (m *memoryStore) GetOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStore) GetOrdersByCustomer(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			all = append(all, o)
		}
	}
	page, total := paginate(all, params)
	return page, total, nil
}

func (m *memoryStore) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if o.Status != from {
		return interfaces.ErrConditionFailed
	}
	applyStatusTimestamp(o, to, at)
	return nil
}

// Commissions

func commissionKey(c *models.Commission) string {
	return fmt.Sprintf("%s|%s|%d|%s", c.OrderID.Hex(), c.Recipient.Key(), c.Level, c.Kind)
}

func (m *memoryStore) CreateCommissions(ctx context.Context, commissions []*models.Commission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool, len(m.commissions))
	for _, c := range m.commissions {
		seen[commissionKey(c)] = true
	}
	for _, c := range commissions {
		if seen[commissionKey(c)] {
			return interfaces.ErrDuplicateKey
		}
	}
	for _, c := range commissions {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		c.CreatedAt = time.Now()
		m.commissions = append(m.commissions, c)
	}
	return nil
}

func (m *memoryStore) GetCommissionByID(ctx context.Context, id primitive.ObjectID) (*models.Commission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.commissions {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStore) GetCommissionsByOrder(ctx context.Context, orderID primitive.ObjectID) ([]*models.Commission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Commission
	for _, c := range m.commissions {
		if c.OrderID == orderID {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryStore) matchCommission(c *models.Commission, filter models.CommissionFilter) bool {
	if filter.RecipientType != nil && c.Recipient.Type != *filter.RecipientType {
		return false
	}
	if filter.RecipientID != nil && c.Recipient.ID != *filter.RecipientID {
		return false
	}
	if filter.OrderID != nil && c.OrderID != *filter.OrderID {
		return false
	}
	if filter.IsPaid != nil && c.IsPaid != *filter.IsPaid {
		return false
	}
	if filter.Kind != nil && c.Kind != *filter.Kind {
		return false
	}
	return inRange(c.CreatedAt, filter.From, filter.To)
}

func (m *memoryStore) ListCommissions(ctx context.Context, filter models.CommissionFilter, params *utils.PaginationParams) ([]*models.Commission, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.Commission
	for _, c := range m.commissions {
		if m.matchCommission(c, filter) {
			all = append(all, c)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	page, total := paginate(all, params)
	return page, total, nil
}

func (m *memoryStore) GetUnpaidByRecipient(ctx context.Context, recipientID primitive.ObjectID) ([]*models.Commission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Commission
	for _, c := range m.commissions {
		if c.Recipient.ID == recipientID && !c.IsPaid {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryStore) MarkPaid(ctx context.Context, ids []primitive.ObjectID, payoutID *primitive.ObjectID, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markPaidErr != nil {
		return 0, m.markPaidErr
	}
	wanted := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var n int64
	for _, c := range m.commissions {
		if wanted[c.ID] && !c.IsPaid {
			paidAt := at
			c.IsPaid = true
			c.PaidAt = &paidAt
			c.PayoutID = payoutID
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) GetCommissionTotals(ctx context.Context, filter models.CommissionFilter) (*models.CommissionTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := &models.CommissionTotals{}
	for _, c := range m.commissions {
		if !m.matchCommission(c, filter) {
			continue
		}
		totals.Total += c.Amount
		totals.Count++
		if c.IsPaid {
			totals.Paid += c.Amount
		} else {
			totals.Pending += c.Amount
		}
	}
	return totals, nil
}

func (m *memoryStore) CountOrdersByRecipient(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := make(map[primitive.ObjectID]bool)
	for _, c := range m.commissions {
		if c.Recipient.ID == recipientID && c.Kind == models.CommissionKindCommission {
			orders[c.OrderID] = true
		}
	}
	return int64(len(orders)), nil
}

// Credit ledger

func (m *memoryStore) GetCredit(ctx context.Context, customerID primitive.ObjectID) (*models.CustomerCredit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.credits[customerID]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStore) ApplyDelta(ctx context.Context, customerID primitive.ObjectID, delta models.CreditDelta, guard interfaces.CreditGuard) (*models.CustomerCredit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.credits[customerID]
	if !guard.IsZero() {
		if !ok || row.AvailableBalance < guard.MinAvailable || row.PendingBalance < guard.MinPending {
			return nil, interfaces.ErrConditionFailed
		}
	}
	if !ok {
		row = &models.CustomerCredit{ID: primitive.NewObjectID(), CustomerID: customerID, CreatedAt: time.Now()}
		m.credits[customerID] = row
	}
	row.Apply(delta)
	row.UpdatedAt = time.Now()
	copied := *row
	return &copied, nil
}

func (m *memoryStore) CreateTransaction(ctx context.Context, tx *models.CreditTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.ID.IsZero() {
		tx.ID = primitive.NewObjectID()
	}
	m.transactions = append(m.transactions, tx)
	return nil
}

func (m *memoryStore) GetTransactions(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CreditTransaction, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.CreditTransaction
	for _, tx := range m.transactions {
		if tx.CustomerID == customerID {
			all = append(all, tx)
		}
	}
	page, total := paginate(all, params)
	return page, total, nil
}

func (m *memoryStore) GetTransactionsByOrder(ctx context.Context, orderID primitive.ObjectID, txType models.CreditTransactionType) ([]*models.CreditTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.CreditTransaction
	for _, tx := range m.transactions {
		if tx.OrderID != nil && *tx.OrderID == orderID && tx.Type == txType {
			out = append(out, tx)
		}
	}
	return out, nil
}

// Referrals

func (m *memoryStore) CreateReferral(ctx context.Context, referral *models.Referral) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if referral.ID.IsZero() {
		referral.ID = primitive.NewObjectID()
	}
	referral.CreatedAt = time.Now()
	m.referrals = append(m.referrals, referral)
	return nil
}

func (m *memoryStore) findReferral(id primitive.ObjectID) *models.Referral {
	for _, r := range m.referrals {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (m *memoryStore) GetReferralByID(ctx context.Context, id primitive.ObjectID) (*models.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r := m.findReferral(id); r != nil {
		copied := *r
		return &copied, nil
	}
	return nil, interfaces.ErrNotFound
}

func matchReferral(r *models.Referral, filter models.ReferralFilter) bool {
	if filter.ReferrerType != nil && r.Referrer.Type != *filter.ReferrerType {
		return false
	}
	if filter.ReferrerID != nil && r.Referrer.ID != *filter.ReferrerID {
		return false
	}
	if filter.Status != nil && r.Status != *filter.Status {
		return false
	}
	return inRange(r.CreatedAt, filter.From, filter.To)
}

func (m *memoryStore) ListReferrals(ctx context.Context, filter models.ReferralFilter, params *utils.PaginationParams) ([]*models.Referral, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.Referral
	for _, r := range m.referrals {
		if matchReferral(r, filter) {
			all = append(all, r)
		}
	}
	page, total := paginate(all, params)
	return page, total, nil
}

func (m *memoryStore) GetOpenReferralsForReferee(ctx context.Context, customerID primitive.ObjectID, email string) ([]*models.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Referral
	for _, r := range m.referrals {
		if r.Status != models.ReferralStatusPending && r.Status != models.ReferralStatusViewed {
			continue
		}
		if (r.RefereeCustomerID != nil && *r.RefereeCustomerID == customerID) || strings.EqualFold(r.RefereeEmail, email) {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryStore) GetReferralsByOrder(ctx context.Context, orderID primitive.ObjectID) ([]*models.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Referral
	for _, r := range m.referrals {
		if r.OrderID != nil && *r.OrderID == orderID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryStore) UpdateReferralStatus(ctx context.Context, id primitive.ObjectID, from, to models.ReferralStatus, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.findReferral(id)
	if r == nil {
		return interfaces.ErrNotFound
	}
	if r.Status != from {
		return interfaces.ErrConditionFailed
	}
	r.Status = to
	if orderID, ok := fields["order_id"].(primitive.ObjectID); ok {
		r.OrderID = &orderID
	}
	if customerID, ok := fields["referee_customer_id"].(primitive.ObjectID); ok {
		r.RefereeCustomerID = &customerID
	}
	return nil
}

func (m *memoryStore) ExpireStaleReferrals(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.referrals {
		if (r.Status == models.ReferralStatusPending || r.Status == models.ReferralStatusViewed) && !now.Before(r.ExpiresAt) {
			r.Status = models.ReferralStatusExpired
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) countReferrals(filter models.ReferralFilter, key func(*models.Referral) string) []models.CountBucket {
	counts := make(map[string]int64)
	for _, r := range m.referrals {
		if matchReferral(r, filter) {
			counts[key(r)]++
		}
	}
	buckets := make([]models.CountBucket, 0, len(counts))
	for k, n := range counts {
		buckets = append(buckets, models.CountBucket{Key: k, Count: n})
	}
	return buckets
}

func (m *memoryStore) CountReferralsByStatus(ctx context.Context, filter models.ReferralFilter) ([]models.CountBucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countReferrals(filter, func(r *models.Referral) string { return string(r.Status) }), nil
}

func (m *memoryStore) CountReferralsByType(ctx context.Context, filter models.ReferralFilter) ([]models.CountBucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countReferrals(filter, func(r *models.Referral) string { return string(r.Referrer.Type) }), nil
}

// Payouts

func (m *memoryStore) CreatePayout(ctx context.Context, payout *models.Payout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if payout.ID.IsZero() {
		payout.ID = primitive.NewObjectID()
	}
	copied := *payout
	m.payouts[payout.ID] = &copied
	return nil
}

func (m *memoryStore) GetPayoutByID(ctx context.Context, id primitive.ObjectID) (*models.Payout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payouts[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, interfaces.ErrNotFound
}

func (m *memoryStore) UpdatePayout(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payouts[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if status, ok := updates["status"].(models.PayoutStatus); ok {
		p.Status = status
	}
	if ref, ok := updates["provider_reference"].(string); ok {
		p.ProviderReference = ref
	}
	if reason, ok := updates["failure_reason"].(string); ok {
		p.FailureReason = reason
	}
	return nil
}

func (m *memoryStore) GetPayoutsByRecipient(ctx context.Context, recipientID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payout, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.Payout
	for _, p := range m.payouts {
		if p.Recipient.ID == recipientID {
			all = append(all, p)
		}
	}
	page, total := paginate(all, params)
	return page, total, nil
}

func (m *memoryStore) CountPayoutsByStatus(ctx context.Context, recipientID primitive.ObjectID, status models.PayoutStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.payouts {
		if p.Recipient.ID == recipientID && p.Status == status {
			n++
		}
	}
	return n, nil
}

// Seeding helpers

func (m *memoryStore) addPartner(name, email string) *models.Partner {
	p := &models.Partner{
		ID:             primitive.NewObjectID(),
		BusinessName:   name,
		Email:          email,
		IsActive:       true,
		PayoutProvider: "fake",
		PayoutAccount:  "acct_" + strings.ToLower(name),
	}
	m.partners[p.ID] = p
	return p
}

func (m *memoryStore) addCustomer(email string, referrer *models.OwnerReference) *models.Customer {
	c := &models.Customer{ID: primitive.NewObjectID(), Email: email, Name: email}
	if referrer != nil {
		ref := *referrer
		c.Referrer = &ref
		c.ReferralType = ref.Type
	}
	m.customers[c.ID] = c
	return c
}

func (m *memoryStore) addCode(code string, owner models.OwnerReference, active bool, expiresAt *time.Time) *models.ReferralCode {
	rc := &models.ReferralCode{
		ID:        primitive.NewObjectID(),
		Code:      code,
		Owner:     owner,
		IsActive:  active,
		ExpiresAt: expiresAt,
	}
	m.codes[code] = rc
	return rc
}

// memoryCache is a CacheBackend over a map of JSON values.
type memoryCache struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.values[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = raw
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}

func (c *memoryCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = []byte(`""`)
	return true, nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range c.values {
		if strings.HasPrefix(k, prefix) {
			delete(c.values, k)
			n++
		}
	}
	return n, nil
}

func (c *memoryCache) Publish(ctx context.Context, channel string, message interface{}) error {
	return nil
}

// fakeProvider records transfers and fails when err is set.
type fakeProvider struct {
	mu        sync.Mutex
	transfers []*payment.TransferRequest
	err       error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Transfer(ctx context.Context, req *payment.TransferRequest) (*payment.TransferResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transfers = append(p.transfers, req)
	if p.err != nil {
		return nil, p.err
	}
	return &payment.TransferResponse{
		TransferID: fmt.Sprintf("tr_%d", len(p.transfers)),
		Status:     "paid",
		Amount:     req.Amount,
		Currency:   req.Currency,
	}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: &config.AppConfig{StoreURL: "https://pawtraits.test", Currency: "GBP"},
		Referral: &config.ReferralConfig{
			Rates: []config.RateEntry{
				{OwnerType: "customer", Level: 1, BasisPoints: 500},
				{OwnerType: "partner", Level: 1, BasisPoints: 1000},
				{OwnerType: "influencer", Level: 1, BasisPoints: 1000},
				{OwnerType: "customer", Level: 2, BasisPoints: 200},
				{OwnerType: "partner", Level: 2, BasisPoints: 200},
				{OwnerType: "influencer", Level: 2, BasisPoints: 200},
			},
			MaxCommissionDepth: 2,
			MaxChainDepth:      10,
			CodeLength:         6,
			StatsCacheTTL:      time.Minute,
			InviteExpiry:       30 * 24 * time.Hour,
			MinimumPayout:      1000,
			QRCodeSize:         256,
		},
	}
}

// testEnv wires the services over one memoryStore with notifications disabled.
type testEnv struct {
	store     *memoryStore
	cfg       *config.Config
	log       *logger.Logger
	directory OwnerDirectory
	codes     ReferralCodeService
	attr      AttributionService
	credits   CreditService
	referrals ReferralService
	orders    OrderService
}

func newTestEnv() *testEnv {
	store := newMemoryStore()
	cfg := testConfig()
	log := logger.NewNop()

	directory := NewOwnerDirectory(store, store, store)
	codes := NewReferralCodeService(cfg, store, directory, NewCacheService(nil, log, time.Minute), log)
	attr := NewAttributionService(store, directory, cfg.Referral.MaxChainDepth, log)
	credits := NewCreditService(store, store, log)
	referrals := NewReferralService(cfg.Referral, store, store, codes, attr, directory, nil, log)
	calculator := NewCommissionCalculator(NewRateTable(cfg.Referral), log)
	orders := NewOrderService(store, store, store, store, codes, attr, calculator, credits, referrals, nil, "GBP", log)

	return &testEnv{
		store:     store,
		cfg:       cfg,
		log:       log,
		directory: directory,
		codes:     codes,
		attr:      attr,
		credits:   credits,
		referrals: referrals,
		orders:    orders,
	}
}

func adminSession() *models.Session {
	return &models.Session{UserID: primitive.NewObjectID(), Role: models.SessionRoleAdmin}
}

func customerSession(id primitive.ObjectID) *models.Session {
	return &models.Session{UserID: id, Role: models.SessionRoleCustomer}
}
