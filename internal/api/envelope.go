package api

import (
	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/thebooksapp/thebooks-server/internal/errors"
)

// Envelope is the response wrapper every endpoint produces. Status carries
// the domain result code; the HTTP status mirrors the error class but the
// envelope code is the API contract.
type Envelope struct {
	Data   any               `json:"data,omitempty" doc:"Operation result"`
	Errors map[string]string `json:"errors,omitempty" doc:"Field or title keyed error messages"`
	Status int               `json:"status" doc:"Domain result code: 200 success, 101 domain failure, 500 unexpected"`
}

// EnvelopeTransformer wraps every response body in the envelope. Error
// bodies arrive as *APIError and carry their own domain status; everything
// else is a success payload.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case nil:
		return Envelope{Status: domainerrors.DomainOK}, nil
	case *APIError:
		return Envelope{Errors: body.Errors, Status: body.DomainStatus}, nil
	case Envelope:
		return body, nil
	case *Envelope:
		return body, nil
	default:
		return Envelope{Data: v, Status: domainerrors.DomainOK}, nil
	}
}
