package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pawtraits/internal/middleware"
	"pawtraits/internal/models"
	"pawtraits/internal/services"
	"pawtraits/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("lookup: %w", services.ErrCodeNotFound), http.StatusNotFound, utils.CodeReferralCodeNotFound},
		{services.ErrCodeExpired, http.StatusGone, utils.CodeReferralCodeExpired},
		{services.ErrCodeInactive, http.StatusGone, utils.CodeReferralCodeInactive},
		{services.ErrInsufficientBalance, http.StatusUnprocessableEntity, utils.CodeInsufficientBalance},
		{services.ErrReferralCycle, http.StatusUnprocessableEntity, utils.CodeReferralCycle},
		{services.ErrInvalidStatusTransition, http.StatusConflict, utils.CodeInvalidTransition},
		{services.ErrNothingToPay, http.StatusUnprocessableEntity, utils.CodeNothingToPay},
		{fmt.Errorf("%w: write conflict", services.ErrPayoutUnsettled), http.StatusConflict, utils.CodeConflict},
		{services.ErrForbidden, http.StatusForbidden, utils.CodeForbidden},
		{services.ErrNotFound, http.StatusNotFound, utils.CodeNotFound},
		{fmt.Errorf("boom"), http.StatusInternalServerError, utils.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, code := StatusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

type stubCodes struct {
	services.ReferralCodeService
	owner *models.OwnerReference
	err   error
}

func (s *stubCodes) ResolveCode(ctx context.Context, code string) (*models.OwnerReference, error) {
	return s.owner, s.err
}

func (s *stubCodes) QRCode(ctx context.Context, code string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("\x89PNG"), nil
}

func (s *stubCodes) ShareURL(code string) string {
	return "https://pawtraits.pics/?ref=" + code
}

func decode(t *testing.T, w *httptest.ResponseRecorder) utils.APIResponse {
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestReferralCodeHandlerGetCode(t *testing.T) {
	owner := &models.OwnerReference{Type: models.OwnerTypePartner, ID: primitive.NewObjectID(), CommissionRateBps: 1500}
	r := gin.New()
	r.GET("/referral-codes/:code", NewReferralCodeHandler(&stubCodes{owner: owner}).GetCode)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/referral-codes/PTR-ABC123", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"share_url":"https://pawtraits.pics/?ref=PTR-ABC123"`)
	assert.NotContains(t, w.Body.String(), owner.ID.Hex())
}

func TestReferralCodeHandlerErrors(t *testing.T) {
	r := gin.New()
	r.GET("/referral-codes/:code", NewReferralCodeHandler(&stubCodes{err: services.ErrCodeExpired}).GetCode)
	r.GET("/referral-codes/:code/qr", NewReferralCodeHandler(&stubCodes{err: services.ErrCodeInactive}).QRCode)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/referral-codes/OLD", nil))
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, utils.CodeReferralCodeExpired, decode(t, w).Error.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/referral-codes/OFF/qr", nil))
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, utils.CodeReferralCodeInactive, decode(t, w).Error.Code)
}

func TestReferralCodeHandlerQRCode(t *testing.T) {
	r := gin.New()
	r.GET("/referral-codes/:code/qr", NewReferralCodeHandler(&stubCodes{}).QRCode)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/referral-codes/PTR-ABC123/qr", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

type stubCredits struct {
	services.CreditService
	called bool
}

func (s *stubCredits) GetBalance(ctx context.Context, customerID primitive.ObjectID) (*models.CustomerCredit, error) {
	s.called = true
	return &models.CustomerCredit{CustomerID: customerID}, nil
}

func withSession(session *models.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextSession, session)
		c.Next()
	}
}

func TestGetCreditsChecksOwnership(t *testing.T) {
	customerID := primitive.NewObjectID()
	credits := &stubCredits{}
	handler := NewCustomerHandler(nil, credits)

	r := gin.New()
	r.GET("/mine/:id", withSession(&models.Session{UserID: customerID, Role: models.SessionRoleCustomer}), handler.GetCredits)
	r.GET("/other/:id", withSession(&models.Session{UserID: primitive.NewObjectID(), Role: models.SessionRoleCustomer}), handler.GetCredits)
	r.GET("/anon/:id", handler.GetCredits)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/other/"+customerID.Hex(), nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, credits.called)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/anon/"+customerID.Hex(), nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/mine/not-an-id", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/mine/"+customerID.Hex(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, credits.called)
}

func TestCreateOrderValidation(t *testing.T) {
	handler := NewOrderHandler(nil)
	r := gin.New()
	r.POST("/orders", withSession(&models.Session{UserID: primitive.NewObjectID(), Role: models.SessionRoleAdmin}), handler.CreateOrder)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"customer_id":"nope","total_value":-1}`)))

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, utils.CodeValidationError, resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "CustomerID")
	assert.Contains(t, resp.Error.Details, "TotalValue")
}

type stubReferrals struct {
	services.ReferralService
	chain models.AttributionChain
}

func (s *stubReferrals) GetAttribution(ctx context.Context, session *models.Session, customerID primitive.ObjectID) (models.AttributionChain, error) {
	return s.chain, nil
}

func TestGetAttributionReportsDepth(t *testing.T) {
	customerID := primitive.NewObjectID()
	referrals := &stubReferrals{chain: models.AttributionChain{Links: []models.AttributionLink{
		{OwnerType: models.OwnerTypeCustomer, OwnerID: primitive.NewObjectID(), Level: 1},
		{OwnerType: models.OwnerTypePartner, OwnerID: primitive.NewObjectID(), Level: 2},
	}}}
	handler := NewCustomerHandler(referrals, nil)

	r := gin.New()
	r.GET("/customers/:id/attribution", withSession(&models.Session{UserID: customerID, Role: models.SessionRoleCustomer}), handler.GetAttribution)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/customers/"+customerID.Hex()+"/attribution", nil))

	require.Equal(t, http.StatusOK, w.Code)
	data, ok := decode(t, w).Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), data["depth"])
}
