package graphql

import (
	"net/http"
	"strings"

	gql "github.com/graphql-go/graphql"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/cms_admin/internal/logging"
)

type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

type GraphQLHTTP struct {
	Schema gql.Schema
}

func requestError(msg string) map[string]any {
	return map[string]any{
		"errors": []map[string]any{{
			"message":    msg,
			"extensions": map[string]any{"code": CodeBadUserInput},
		}},
	}
}

func (h *GraphQLHTTP) Serve(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "graphql")

	var req Request
	if err := c.Bind(&req); err != nil {
		l.Warn("graphql_error", "status", http.StatusBadRequest, "reason", "invalid request body", "error", err)
		return c.JSON(http.StatusBadRequest, requestError("invalid request body"))
	}
	if strings.TrimSpace(req.Query) == "" {
		l.Warn("graphql_error", "status", http.StatusBadRequest, "reason", "empty query")
		return c.JSON(http.StatusBadRequest, requestError("query is required"))
	}

	res := gql.Do(gql.Params{
		Schema:         h.Schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
	if res.HasErrors() {
		l.Debug("graphql_errors", "operation", req.OperationName, "count", len(res.Errors))
	}
	return c.JSON(http.StatusOK, res)
}
