package smoke

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"bread-calculator/internal/client"
)

type CheckResult struct {
	Name       string
	Passed     bool
	StatusCode int
	Detail     string
}

func AllPassed(results []CheckResult) bool {
	for _, res := range results {
		if !res.Passed {
			return false
		}
	}
	return len(results) > 0
}

// AuthChecker exercises register, login and a protected endpoint. Unlike
// Runner it keeps going after a failed check, except that nothing past a
// failed registration is attempted.
type AuthChecker struct {
	client *client.Client
	out    io.Writer
	creds  Credentials
}

func NewAuthChecker(c *client.Client, out io.Writer, creds Credentials) *AuthChecker {
	return &AuthChecker{client: c.Anonymous(), out: out, creds: creds}
}

// Run returns an error only when the service cannot be reached; check
// failures are reported in the results.
func (a *AuthChecker) Run(ctx context.Context) ([]CheckResult, error) {
	var results []CheckResult
	record := func(name string, resp *client.Response, want int, ok, fail string) bool {
		passed := resp.StatusCode == want
		detail := ok
		if !passed {
			detail = fmt.Sprintf("%s (expected %d, got %d)", fail, want, resp.StatusCode)
			failColor.Fprintf(a.out, "FAIL: %s\n", detail)
		} else {
			pass(a.out, ok)
		}
		results = append(results, CheckResult{Name: name, Passed: passed, StatusCode: resp.StatusCode, Detail: detail})
		return passed
	}

	resp, err := a.client.Register(ctx, client.RegisterRequest{
		Username: a.creds.Username,
		Email:    a.creds.Email,
		Password: a.creds.Password,
	})
	if err != nil {
		return results, err
	}
	printResponse(a.out, "Testing /users/register", resp)
	if !record("register", resp, http.StatusCreated, "Registration successful", "Registration failed") {
		printChecks(a.out, results)
		return results, nil
	}

	resp, err = a.client.Login(ctx, a.creds.Username, a.creds.Password)
	if err != nil {
		return results, err
	}
	printResponse(a.out, "Testing /users/login", resp)
	token := ""
	if record("login", resp, http.StatusOK, "Login successful", "Login failed") {
		var body client.LoginResponse
		if err := resp.Decode(&body); err == nil {
			token = body.AccessToken
		}
	}

	resp, err = a.client.Login(ctx, "nonexistent", "wrongpassword")
	if err != nil {
		return results, err
	}
	printResponse(a.out, "Testing /users/login with invalid credentials", resp)
	record("invalid login", resp, http.StatusUnauthorized, "Invalid credentials properly rejected", "Invalid credentials not rejected")

	if token == "" {
		results = append(results, CheckResult{Name: "protected endpoint", Detail: "skipped: no token from login"})
		failColor.Fprintln(a.out, "FAIL: no token to call the protected endpoint with")
	} else {
		authed := a.client.Anonymous()
		authed.SetToken(token)
		resp, err = authed.Me(ctx)
		if err != nil {
			return results, err
		}
		printResponse(a.out, "Testing protected endpoint /users/me", resp)
		record("protected endpoint", resp, http.StatusOK, "Protected endpoint access successful", "Protected endpoint access failed")
	}

	fmt.Fprintln(a.out)
	printChecks(a.out, results)
	return results, nil
}
