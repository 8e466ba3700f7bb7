package domain

import "fmt"

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Status: 401}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: msg, Status: 403}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}

// Market engine error constructors.

func ErrMarketClosed(marketID string, status MarketStatus) *AppError {
	return &AppError{
		Code:    "MARKET_CLOSED",
		Message: fmt.Sprintf("market %s is not open for betting (status: %s)", marketID, status),
		Status:  409,
	}
}

func ErrBelowMinimum(amount, minBet int64) *AppError {
	return &AppError{
		Code:    "BELOW_MINIMUM",
		Message: fmt.Sprintf("bet amount %d is below the market minimum %d", amount, minBet),
		Status:  400,
	}
}

func ErrAboveMaximum(amount, maxBet int64) *AppError {
	return &AppError{
		Code:    "ABOVE_MAXIMUM",
		Message: fmt.Sprintf("bet amount %d exceeds the market maximum %d", amount, maxBet),
		Status:  400,
	}
}

func ErrInvalidOutcome(outcomeID, marketID string) *AppError {
	return &AppError{
		Code:    "INVALID_OUTCOME",
		Message: fmt.Sprintf("outcome %s does not belong to market %s", outcomeID, marketID),
		Status:  400,
	}
}

// ErrSlippage is retriable: the caller may re-quote and resubmit.
func ErrSlippage(quoted, minOdds float64) *AppError {
	return &AppError{
		Code:    "SLIPPAGE",
		Message: fmt.Sprintf("odds %.4f fell below requested minimum %.4f", quoted, minOdds),
		Status:  409,
	}
}

func ErrAlreadySettled(marketID string) *AppError {
	return &AppError{
		Code:    "ALREADY_SETTLED",
		Message: fmt.Sprintf("market %s is already settled", marketID),
		Status:  409,
	}
}

func ErrInvalidStateTransition(msg string) *AppError {
	return &AppError{Code: "INVALID_STATE_TRANSITION", Message: msg, Status: 409}
}

// ErrExternalDependency marks a verifier or score-source failure. The market
// stays in its prior state for a later retry.
func ErrExternalDependency(dep string, cause error) *AppError {
	return &AppError{
		Code:    "EXTERNAL_DEPENDENCY_FAILURE",
		Message: fmt.Sprintf("external dependency %s failed", dep),
		Status:  502,
		Cause:   cause,
	}
}
