package handlers

import (
	"errors"
	"net/http"

	"pawtraits/internal/middleware"
	"pawtraits/internal/models"
	"pawtraits/internal/services"
	"pawtraits/internal/utils"
	"pawtraits/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var serviceErrors = []errorMapping{
	{services.ErrCodeNotFound, http.StatusNotFound, utils.CodeReferralCodeNotFound},
	{services.ErrCodeExpired, http.StatusGone, utils.CodeReferralCodeExpired},
	{services.ErrCodeInactive, http.StatusGone, utils.CodeReferralCodeInactive},
	{services.ErrCodeExists, http.StatusConflict, utils.CodeReferralCodeExists},
	{services.ErrOwnerNotFound, http.StatusNotFound, utils.CodeOwnerNotFound},
	{services.ErrInsufficientBalance, http.StatusUnprocessableEntity, utils.CodeInsufficientBalance},
	{services.ErrSelfReferral, http.StatusUnprocessableEntity, utils.CodeSelfReferral},
	{services.ErrReferralCycle, http.StatusUnprocessableEntity, utils.CodeReferralCycle},
	{services.ErrAlreadyReferred, http.StatusConflict, utils.CodeAlreadyReferred},
	{services.ErrInvalidStatusTransition, http.StatusConflict, utils.CodeInvalidTransition},
	{services.ErrNothingToPay, http.StatusUnprocessableEntity, utils.CodeNothingToPay},
	{services.ErrBelowMinimumPayout, http.StatusUnprocessableEntity, utils.CodeNothingToPay},
	{services.ErrPayoutInProgress, http.StatusConflict, utils.CodeConflict},
	{services.ErrPayoutUnsettled, http.StatusConflict, utils.CodeConflict},
	{services.ErrPayoutFailed, http.StatusBadGateway, utils.CodePayoutProviderFailure},
	{services.ErrPayoutNotConfigured, http.StatusUnprocessableEntity, utils.CodeBadRequest},
	{services.ErrInvalidAmount, http.StatusBadRequest, utils.CodeBadRequest},
	{services.ErrInvalidCreditType, http.StatusBadRequest, utils.CodeBadRequest},
	{services.ErrCustomerExists, http.StatusConflict, utils.CodeConflict},
	{services.ErrReferralExpired, http.StatusGone, utils.CodeInvalidTransition},
	{services.ErrForbidden, http.StatusForbidden, utils.CodeForbidden},
	{services.ErrNotFound, http.StatusNotFound, utils.CodeNotFound},
}

// StatusFor maps a service error to its HTTP status and response code.
func StatusFor(err error) (int, string) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, utils.CodeInternalError
}

// RespondError writes the error envelope for a service error. Unknown errors are
// reported as internal without leaking their text.
func RespondError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		utils.InternalServerErrorResponse(c)
		return
	}
	utils.ErrorResponse(c, status, code, err.Error())
}

// RequireSession returns the caller's session or writes 401.
func RequireSession(c *gin.Context) (*models.Session, bool) {
	session, ok := middleware.GetSession(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return nil, false
	}
	return session, true
}

// ParamObjectID parses a path parameter as an ObjectID or writes 400.
func ParamObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

// BindJSON decodes and validates a request body, writing 400 or 422 on failure.
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return false
	}
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return false
	}
	return true
}
