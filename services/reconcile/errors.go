package reconcile

import "fmt"

// SignatureError means the payload could not be authenticated as coming
// from the provider. The ledger and vouchers are never touched; the
// provider gets a 4xx and should not retry.
type SignatureError struct {
	Provider string
	Err      error
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("webhook signature verification failed for %s: %v", e.Provider, e.Err)
}

func (e *SignatureError) Unwrap() error { return e.Err }

// MalformedPayloadError means required fields could not be extracted from
// an otherwise authenticated payload.
type MalformedPayloadError struct {
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return "malformed webhook payload: " + e.Reason
}

// ConfirmationError means the authenticated re-fetch of the payment from
// the provider API failed or timed out. We fail closed: the event is not
// applied and the provider gets a 5xx so it redelivers later.
type ConfirmationError struct {
	Err error
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("payment confirmation fetch failed: %v", e.Err)
}

func (e *ConfirmationError) Unwrap() error { return e.Err }

// PersistenceError wraps a transient storage failure. The provider gets a
// 5xx and its redelivery takes the place of an internal retry queue.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during reconciliation: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// UnknownProviderError means the webhook path named a provider we have no
// adapter for.
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return "unknown payment provider: " + e.Name
}
