package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Brand-related errors
	ErrBrandNotRegistered = errors.New("sender wallet does not belong to a registered brand")
	ErrBrandInactive      = errors.New("brand is inactive")

	// Campaign-related errors
	ErrCampaignNotFound    = errors.New("campaign not found")
	ErrPaymentAmountZero   = errors.New("payment amount converts to zero minor units")
	ErrCacheNotAvailable   = errors.New("cache not available")
	ErrCampaignIDRequired  = errors.New("campaign id is required")
	ErrSenderWalletMissing = errors.New("sender wallet address is required")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsBrandNotRegistered(err error) bool {
	return errors.Is(err, ErrBrandNotRegistered)
}

func IsBrandInactive(err error) bool {
	return errors.Is(err, ErrBrandInactive)
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsPaymentAmountZero(err error) bool {
	return errors.Is(err, ErrPaymentAmountZero)
}
