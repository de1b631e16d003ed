package api

import (
	stderrors "errors"
	"strconv"

	"ai-board-of-directors/backend/internal/service"
	"ai-board-of-directors/backend/pkg/errors"
	"ai-board-of-directors/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// mapError turns service errors into the AppError rendered by errors.ErrorHandler
func mapError(err error) *errors.AppError {
	var limitErr *service.LimitError
	var typeErr *service.UnsupportedTypeError

	switch {
	case stderrors.As(err, &limitErr):
		return errors.ForbiddenWithDetails("PERSONA_LIMIT_REACHED", limitErr.Error(), gin.H{"limit": limitErr.Limit})
	case stderrors.As(err, &typeErr):
		return errors.BadRequestWithDetails("UNSUPPORTED_MEDIA_TYPE", typeErr.Error(), gin.H{"allowed": typeErr.Allowed})

	case stderrors.Is(err, service.ErrUserAlreadyExists):
		return errors.NewConflictError("USER_EXISTS", "A user with this email already exists")
	case stderrors.Is(err, service.ErrInvalidCredentials):
		return errors.NewUnauthorizedError("INVALID_CREDENTIALS", "Invalid email or password")
	case stderrors.Is(err, service.ErrUserNotFound):
		return errors.NewNotFoundError("USER_NOT_FOUND", "User not found")

	case stderrors.Is(err, service.ErrConversationNotFound):
		return errors.NewNotFoundError("CONVERSATION_NOT_FOUND", "Conversation not found")
	case stderrors.Is(err, service.ErrBoardMemberNotFound):
		return errors.NewNotFoundError("PERSONA_NOT_FOUND", err.Error())
	case stderrors.Is(err, service.ErrCustomDescription):
		return errors.NewBadRequestError("CUSTOM_DESCRIPTION_REQUIRED", "A custom personality needs a description")

	case stderrors.Is(err, service.ErrEmptyPersonaSet):
		return errors.NewBadRequestError("EMPTY_PERSONA_SET", "Select at least one board member")
	case stderrors.Is(err, service.ErrEmptyContent):
		return errors.NewBadRequestError("EMPTY_CONTENT", "Message content is required")
	case stderrors.Is(err, service.ErrInvalidMessageKind):
		return errors.NewBadRequestError("INVALID_MESSAGE_TYPE", "Message type must be text, image or audio")
	case stderrors.Is(err, service.ErrMissingAttachment):
		return errors.NewBadRequestError("MISSING_ATTACHMENT", "Media messages require a file URL")

	case stderrors.Is(err, service.ErrPremiumRequired):
		return errors.ForbiddenWithDetails("PREMIUM_REQUIRED", "Premium subscription required for media sharing", gin.H{"upgradeRequired": true})
	case stderrors.Is(err, service.ErrFileTooLarge):
		return errors.NewPayloadTooLargeError("FILE_TOO_LARGE", "File too large. Maximum size is 10MB.")
	case stderrors.Is(err, service.ErrEmptyFile):
		return errors.NewBadRequestError("EMPTY_FILE", "File is empty")

	case stderrors.Is(err, service.ErrPaymentUnavailable):
		return errors.NewServiceUnavailableError("PAYMENT_UNAVAILABLE", "Payment processing is currently unavailable")
	case stderrors.Is(err, service.ErrNoEmail):
		return errors.NewBadRequestError("NO_EMAIL", "No user email on file")
	case stderrors.Is(err, service.ErrPaymentVerification):
		return errors.NewBadRequestError("PAYMENT_VERIFICATION_FAILED", "Invalid payment verification")
	case stderrors.Is(err, service.ErrPaymentGateway):
		return errors.NewBadGatewayError("PAYMENT_GATEWAY_ERROR", "The payment provider could not be reached")
	case stderrors.Is(err, service.ErrMissingWebhookFields):
		return errors.NewBadRequestError("MISSING_FIELDS", "Missing required fields")
	}

	return errors.FromError(err)
}

// fail attaches err for the error middleware and stops the chain
func fail(c *gin.Context, err error) {
	_ = c.Error(mapError(err))
	c.Abort()
}

func badRequest(c *gin.Context, code, message string) {
	_ = c.Error(errors.NewBadRequestError(code, message))
	c.Abort()
}

// currentUserID returns the id set by the auth middleware
func currentUserID(c *gin.Context) (uint, bool) {
	id := c.GetUint(middleware.UserIDKey)
	if id == 0 {
		_ = c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		c.Abort()
		return 0, false
	}
	return id, true
}

// idParam parses a positive numeric path parameter
func idParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		badRequest(c, "INVALID_ID", name+" must be a positive number")
		return 0, false
	}
	return uint(v), true
}
