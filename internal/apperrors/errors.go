package apperrors

import (
	"errors"
	"fmt"

	"lojinha/internal/models"
)

// Sentinel errors for the common "it simply isn't there" cases.
var (
	ErrOrderNotFound   = errors.New("pagamento não encontrado")
	ErrProductNotFound = errors.New("produto não encontrado")
	// ErrLinksExpired means the entitlement window has closed.
	ErrLinksExpired = errors.New("o prazo de acesso aos downloads expirou")
	// ErrNoDownloadLinks means the order resolved to zero downloadable items.
	ErrNoDownloadLinks = errors.New("nenhum link de download disponível para este pedido")
)

// ValidationError reports which request field failed and why. Always a 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validação falhou no campo '%s': %s", e.Field, e.Reason)
}

// NotApprovedError gates download access and carries the current status so
// the client can keep polling.
type NotApprovedError struct {
	Status models.PaymentStatus
}

func (e *NotApprovedError) Error() string {
	return fmt.Sprintf("pagamento ainda não aprovado (status atual: %s)", e.Status)
}

// GatewayError wraps a failure from the payment gateway, passing its
// diagnostic message through for debugging.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("erro do gateway de pagamento (HTTP %d): %s", e.StatusCode, e.Message)
}

// CatalogError covers failures talking to the product catalog.
// Unreachable distinguishes connectivity/timeouts (503) from auth or
// configuration problems (500).
type CatalogError struct {
	Unreachable bool
	Err         error
}

func (e *CatalogError) Error() string {
	if e.Unreachable {
		return fmt.Sprintf("catálogo de produtos indisponível: %v", e.Err)
	}
	return fmt.Sprintf("falha de acesso ao catálogo de produtos: %v", e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

// HTTPStatus maps an error from the service layer to the HTTP status code
// the handlers should answer with. Unknown errors are a 500.
func HTTPStatus(err error) int {
	var (
		validationErr  *ValidationError
		notApprovedErr *NotApprovedError
		gatewayErr     *GatewayError
		catalogErr     *CatalogError
	)
	switch {
	case errors.As(err, &validationErr):
		return 400
	case errors.As(err, &notApprovedErr):
		return 403
	case errors.Is(err, ErrLinksExpired):
		return 410
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrProductNotFound), errors.Is(err, ErrNoDownloadLinks):
		return 404
	case errors.As(err, &gatewayErr):
		return 500
	case errors.As(err, &catalogErr):
		if catalogErr.Unreachable {
			return 503
		}
		return 500
	default:
		return 500
	}
}
