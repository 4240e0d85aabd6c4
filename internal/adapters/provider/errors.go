package provider

import (
	"errors"

	"github.com/aws/smithy-go"
	"github.com/dkeye/Assist/internal/domain"
	"github.com/openai/openai-go"
)

const (
	nameOpenAI = "openai"
	namePolly  = "polly"
)

// classify wraps err as a *domain.ProviderError. An error the provider
// answered with is "rejected"; everything else (DNS, TLS, timeouts, resets)
// is "network".
func classify(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	pe := &domain.ProviderError{Provider: provider, Op: op, Kind: domain.ProviderNetwork, Err: err}

	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		pe.Kind = domain.ProviderRejected
		pe.Status = oaiErr.StatusCode
		return pe
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		pe.Kind = domain.ProviderRejected
		var withStatus interface{ HTTPStatusCode() int }
		if errors.As(err, &withStatus) {
			pe.Status = withStatus.HTTPStatusCode()
		}
		return pe
	}
	return pe
}
