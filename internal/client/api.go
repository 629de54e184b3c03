package client

import (
	"context"
	"fmt"
	"net/http"

	"bread-calculator/internal/models"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        models.User `json:"user"`
}

type CalculationRequest struct {
	A    float64                `json:"a"`
	B    float64                `json:"b"`
	Type models.CalculationType `json:"type"`
}

// CalculationPatch sends only the fields that are set.
type CalculationPatch struct {
	A    *float64                `json:"a,omitempty"`
	B    *float64                `json:"b,omitempty"`
	Type *models.CalculationType `json:"type,omitempty"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/users/register", req)
}

func (c *Client) Login(ctx context.Context, username, password string) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/users/login", LoginRequest{Username: username, Password: password})
}

func (c *Client) Me(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/users/me", nil)
}

func (c *Client) CreateCalculation(ctx context.Context, req CalculationRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/calculations", req)
}

func (c *Client) ListCalculations(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/calculations", nil)
}

func (c *Client) GetCalculation(ctx context.Context, id int64) (*Response, error) {
	return c.do(ctx, http.MethodGet, calculationPath(id), nil)
}

func (c *Client) UpdateCalculation(ctx context.Context, id int64, req CalculationRequest) (*Response, error) {
	return c.do(ctx, http.MethodPut, calculationPath(id), req)
}

func (c *Client) PatchCalculation(ctx context.Context, id int64, patch CalculationPatch) (*Response, error) {
	return c.do(ctx, http.MethodPatch, calculationPath(id), patch)
}

func (c *Client) DeleteCalculation(ctx context.Context, id int64) (*Response, error) {
	return c.do(ctx, http.MethodDelete, calculationPath(id), nil)
}

func calculationPath(id int64) string {
	return fmt.Sprintf("/calculations/%d", id)
}
