package gqlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

var ErrNotFound = errors.New("not found")

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// ResponseError is the first error of a GraphQL response.
type ResponseError struct {
	Message string
	Code    string
}

func (e *ResponseError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

func (e *ResponseError) Is(target error) bool {
	return target == ErrNotFound && e.Code == "NOT_FOUND"
}

type Client struct {
	endpoint   string
	httpClient *http.Client
	maxBody    int64

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// NewClient talks to the GraphQL endpoint at the given URL, for example
// http://localhost:8080/graphql.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		maxBody:  maxResponseBytes,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

// Do runs one GraphQL operation and decodes its data into out.
func (c *Client) Do(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(request{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if int64(len(raw)) > c.maxBody {
		return fmt.Errorf("response exceeds %d bytes", c.maxBody)
	}

	var res response
	if err := json.Unmarshal(raw, &res); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("graphql request failed with status: %d", resp.StatusCode)
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if len(res.Errors) > 0 {
		e := res.Errors[0]
		code, _ := e.Extensions["code"].(string)
		return &ResponseError{Message: e.Message, Code: code}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphql request failed with status: %d", resp.StatusCode)
	}

	if out == nil || len(res.Data) == 0 || string(res.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(res.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

type Field struct {
	ID           string `json:"id"`
	ModelID      string `json:"modelId"`
	Identifier   string `json:"identifier"`
	FieldName    string `json:"fieldName"`
	Type         string `json:"type"`
	DefaultValue string `json:"defaultValue"`
	Description  string `json:"description"`
	IsHide       bool   `json:"isHide"`
	IsMedia      bool   `json:"isMedia"`
	IsUnique     bool   `json:"isUnique"`
	IsRequired   bool   `json:"isRequired"`
	IsSystem     bool   `json:"isSystem"`
	IsPrimaryKey bool   `json:"isPrimaryKey"`
}

type Model struct {
	ID          string  `json:"id"`
	Identifier  string  `json:"identifier"`
	ModelName   string  `json:"modelName"`
	Description string  `json:"description"`
	Fields      []Field `json:"fields"`
}

type FieldInput struct {
	ModelID      string `json:"modelId"`
	FieldName    string `json:"fieldName"`
	Identifier   string `json:"identifier"`
	Type         string `json:"type"`
	DefaultValue string `json:"defaultValue"`
	Description  string `json:"description"`
	IsHide       bool   `json:"isHide"`
	IsMedia      bool   `json:"isMedia"`
	IsUnique     bool   `json:"isUnique"`
	IsRequired   bool   `json:"isRequired"`
	IsSystem     bool   `json:"isSystem"`
	IsPrimaryKey bool   `json:"isPrimaryKey"`
}

const fieldSelection = `id modelId identifier fieldName type defaultValue description isHide isMedia isUnique isRequired isSystem isPrimaryKey`

const loginMutation = `mutation Login($email: String!, $password: String!) {
	login(email: $email, password: $password) { token }
}`

// Login exchanges credentials for a session token and keeps it for later
// requests.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Login struct {
			Token string `json:"token"`
		} `json:"login"`
	}
	if err := c.Do(ctx, loginMutation, map[string]any{"email": email, "password": password}, &out); err != nil {
		return "", err
	}
	c.SetToken(out.Login.Token)
	return out.Login.Token, nil
}

const getModelQuery = `query GetModel($identifier: String!) {
	getModel(identifier: $identifier) { id identifier modelName description fields { ` + fieldSelection + ` } }
}`

// GetModel returns ErrNotFound when no model has the identifier.
func (c *Client) GetModel(ctx context.Context, identifier string) (*Model, error) {
	var out struct {
		GetModel *Model `json:"getModel"`
	}
	if err := c.Do(ctx, getModelQuery, map[string]any{"identifier": identifier}, &out); err != nil {
		return nil, err
	}
	if out.GetModel == nil {
		return nil, fmt.Errorf("model %s: %w", identifier, ErrNotFound)
	}
	return out.GetModel, nil
}

const createModelMutation = `mutation CreateModel($modelName: String!, $identifier: String, $description: String) {
	createModel(modelName: $modelName, identifier: $identifier, description: $description) { id identifier modelName description }
}`

func (c *Client) CreateModel(ctx context.Context, modelName, identifier, description string) (*Model, error) {
	vars := map[string]any{"modelName": modelName}
	if s := strings.TrimSpace(identifier); s != "" {
		vars["identifier"] = s
	}
	if description != "" {
		vars["description"] = description
	}

	var out struct {
		CreateModel Model `json:"createModel"`
	}
	if err := c.Do(ctx, createModelMutation, vars, &out); err != nil {
		return nil, err
	}
	return &out.CreateModel, nil
}

const createFieldMutation = `mutation CreateField(
	$modelId: ID!, $fieldName: String!, $identifier: String!, $type: String!,
	$defaultValue: String, $description: String,
	$isHide: Boolean, $isMedia: Boolean, $isUnique: Boolean,
	$isRequired: Boolean, $isSystem: Boolean, $isPrimaryKey: Boolean
) {
	createField(
		modelId: $modelId, fieldName: $fieldName, identifier: $identifier, type: $type,
		defaultValue: $defaultValue, description: $description,
		isHide: $isHide, isMedia: $isMedia, isUnique: $isUnique,
		isRequired: $isRequired, isSystem: $isSystem, isPrimaryKey: $isPrimaryKey
	) { ` + fieldSelection + ` }
}`

func (c *Client) CreateField(ctx context.Context, in FieldInput) (*Field, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	var vars map[string]any
	if err := json.Unmarshal(raw, &vars); err != nil {
		return nil, err
	}

	var out struct {
		CreateField Field `json:"createField"`
	}
	if err := c.Do(ctx, createFieldMutation, vars, &out); err != nil {
		return nil, err
	}
	return &out.CreateField, nil
}
