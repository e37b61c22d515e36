package errx

import (
	"errors"
	"net/http"
)

// Stage-failure sentinels. Every failure crossing a pipeline stage boundary
// wraps exactly one of these so callers can branch with errors.Is without
// inspecting messages.
var (
	ErrValidation      = errors.New("validation error")
	ErrRetrieval       = errors.New("retrieval failure")
	ErrTool            = errors.New("tool failure")
	ErrReasoning       = errors.New("reasoning failure")
	ErrInvalidDecision = errors.New("invalid decision")
)

// Validation wraps a malformed-input error. Rejected at the boundary,
// never entering the state machine.
func Validation(err error) *AppError {
	return New(join(ErrValidation, err), http.StatusBadRequest, "invalid inbound event")
}

// Retrieval wraps an evidence-store failure, distinguishable from an empty
// result set.
func Retrieval(err error) *AppError {
	return New(join(ErrRetrieval, err), http.StatusBadGateway, "evidence store unavailable")
}

// Tool wraps a tool invocation failure after retries are exhausted.
func Tool(err error) *AppError {
	return New(join(ErrTool, err), http.StatusBadGateway, "tool execution failed")
}

// Reasoning wraps a reasoning-capability failure (errored call or
// unusable output).
func Reasoning(err error) *AppError {
	return New(join(ErrReasoning, err), http.StatusBadGateway, "reasoning capability failed")
}

// InvalidDecision wraps a schema violation from the decision engine.
func InvalidDecision(err error) *AppError {
	return New(join(ErrInvalidDecision, err), http.StatusUnprocessableEntity, "invalid decision output")
}

// WrapStore maps embedded store errors to the unified AppError type.
func WrapStore(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, StoreErrorMessage)
}

func join(sentinel, err error) error {
	if err == nil {
		return sentinel
	}
	return errors.Join(sentinel, err)
}
