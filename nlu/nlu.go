package nlu

import (
	"context"
	"errors"

	"github.com/malecare/trialmatch/config"
	"github.com/malecare/trialmatch/models"
	"github.com/malecare/trialmatch/nlu/httpnlu"
)

// Client represents different NLU backends
type Client string

const (
	HTTP  Client = "http"
	Local Client = "local"
)

// Extractor is the fixed contract for the pretrained NLU oracle. Extract
// must be idempotent and side-effect-free from the caller's perspective;
// known carries the slots already filled for the session so the model can
// disambiguate follow-up utterances.
type Extractor interface {
	Extract(ctx context.Context, text string, known map[string]string) (models.Extraction, error)
}

// NewExtractor creates an NLU gateway based on the provided configuration
func NewExtractor(client Client, cfg config.NLUConfig) (Extractor, error) {
	switch client {
	case HTTP:
		if cfg.Endpoint == "" {
			return nil, errors.New("nlu endpoint not set")
		}
		return httpnlu.NewClient(cfg.Endpoint, cfg.Timeout), nil
	case Local:
		return nil, errors.New("local (in-process) NLU not implemented yet")
	default:
		return nil, errors.New("unsupported NLU backend")
	}
}
