package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/rs/zerolog/log"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

const maxRequestBytes = 1 << 20

type graphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// GraphQLHandler serves GraphQL operations over HTTP
type GraphQLHandler struct {
	schema *graphql.Schema
}

// NewGraphQLHandler creates a new GraphQL handler
func NewGraphQLHandler(schema *graphql.Schema) *GraphQLHandler {
	return &GraphQLHandler{schema: schema}
}

// ServeHTTP handles POST /graphql with a JSON body and GET /graphql with
// query parameters. GET only runs queries.
func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req graphQLRequest

	switch r.Method {
	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if vars := q.Get("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				respondError(w, "Invalid variables", http.StatusBadRequest)
				return
			}
		}
		if isMutation(req.Query, req.OperationName) {
			respondError(w, "Mutations require POST", http.StatusMethodNotAllowed)
			return
		}
	default:
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		respondError(w, "query is required", http.StatusBadRequest)
		return
	}

	resp := h.schema.Exec(r.Context(), req.Query, req.OperationName, req.Variables)
	if len(resp.Errors) > 0 {
		log.Debug().
			Str("operation", req.OperationName).
			Int("errors", len(resp.Errors)).
			Str("first_error", resp.Errors[0].Message).
			Msg("GraphQL operation returned errors")
	}

	respondJSON(w, resp, http.StatusOK)
}

// isMutation reports whether the operation that would run is a mutation.
// Documents that do not parse, or that name no runnable operation, are left
// to the executor to reject.
func isMutation(query, operationName string) bool {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return false
	}

	var op *ast.OperationDefinition
	switch {
	case operationName != "":
		op = doc.Operations.ForName(operationName)
	case len(doc.Operations) == 1:
		op = doc.Operations[0]
	}
	return op != nil && op.Operation == ast.Mutation
}
