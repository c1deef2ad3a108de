package api

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is the version of the response envelope format.
const EnvelopeVersion = 1

// APIEnvelope wraps every successful huma response and simple errors.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope carries a coded error.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps response bodies in the API envelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	switch val := v.(type) {
	case APIEnvelope, APIErrorEnvelope, []byte:
		return v, nil
	case *APIError:
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Code:    val.Code,
			Message: val.Message,
			Details: val.Details,
		}, nil
	case error:
		return APIEnvelope{Version: EnvelopeVersion, Error: val.Error()}, nil
	}

	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: !isErrorStatus(status),
		Data:    v,
	}, nil
}

func isErrorStatus(status string) bool {
	return strings.HasPrefix(status, "4") || strings.HasPrefix(status, "5")
}
