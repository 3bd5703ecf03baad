package remote

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/mge-engine/reflection"
)

var (
	validate      = validator.New()
	schemaDecoder = schema.NewDecoder()
)

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
}

// DescribeRequest is the query of GET /Registry/Describe.
type DescribeRequest struct {
	// Module restricts the manifest to one module, e.g. "mge::math".
	Module string `schema:"module"`
	// Primitives includes the predeclared primitive types.
	Primitives bool `schema:"primitives"`
}

// TypeRequest is the query of GET /Registry/Type.
type TypeRequest struct {
	Name string `schema:"name" validate:"required"`
}

// CallRequest is the body of POST /Registry/Call.
type CallRequest struct {
	// Function is the qualified function name, e.g. "mge::math::dot".
	Function string `json:"function" validate:"required"`
	// Args holds one JSON value per parameter.
	Args []json.RawMessage `json:"args" validate:"max=64"`
}

// decodeQuery fills req from the URL query and validates it.
func decodeQuery(r *http.Request, req any) error {
	if err := schemaDecoder.Decode(req, r.URL.Query()); err != nil {
		return reflection.Errorf(reflection.CodeInvalidArgument, "failed to decode query: %v", err)
	}
	return validate.Struct(req)
}

// decodeBody fills req from the JSON body and validates it.
func decodeBody(r *http.Request, req any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return reflection.NewError(reflection.CodeInvalidArgument, "request body is empty")
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return reflection.Errorf(CodeRequestTooLarge, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return reflection.Errorf(reflection.CodeInvalidArgument, "failed to decode body: %v", err)
	}
	return validate.Struct(req)
}
