// Package smoke drives a running calculations service through its public HTTP
// surface and asserts on every response.
//
// Runner executes the full BREAD sequence and stops at the first failed
// assertion. AuthChecker runs the shorter authentication sequence and reports
// every check, pass or fail.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"bread-calculator/internal/client"
	"bread-calculator/internal/models"

	"github.com/google/uuid"
)

const floatTolerance = 1e-9

type Credentials struct {
	Username string
	Email    string
	Password string
}

func DefaultCredentials() Credentials {
	return Credentials{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "password123",
	}
}

// Unique suffixes the username and email so repeated runs against the same
// database do not collide on registration.
func (c Credentials) Unique() Credentials {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	local, domain, ok := strings.Cut(c.Email, "@")
	if !ok {
		local, domain = c.Email, "example.com"
	}
	return Credentials{
		Username: c.Username + "_" + suffix,
		Email:    local + "+" + suffix + "@" + domain,
		Password: c.Password,
	}
}

// AssertionError reports the first mismatch between expected and actual response.
type AssertionError struct {
	Step    string
	Message string
}

func (e *AssertionError) Error() string {
	if e.Step == "" {
		return e.Message
	}
	return e.Step + ": " + e.Message
}

type StepResult struct {
	Number   int
	Name     string
	Passed   bool
	Duration time.Duration
	Err      error
}

type Report struct {
	Results []StepResult
}

func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return len(r.Results) > 0
}

type Runner struct {
	client *client.Client
	out    io.Writer
	creds  Credentials
}

func NewRunner(c *client.Client, out io.Writer, creds Credentials) *Runner {
	return &Runner{client: c.Anonymous(), out: out, creds: creds}
}

type state struct {
	calcID int64
}

type step struct {
	name string
	run  func(ctx context.Context, st *state) error
}

func (r *Runner) steps() []step {
	return []step{
		{"Register User (POST /users/register)", r.register},
		{"Login User (POST /users/login)", r.login},
		{"Get Current User (GET /users/me)", r.currentUser},
		{"Add Calculation (POST /calculations)", r.addCalculation},
		{"Browse Calculations (GET /calculations)", r.browse},
		{"Read Calculation (GET /calculations/{id})", r.read},
		{"Create Multiple Calculations", r.createMultiple},
		{"Edit Calculation (PUT /calculations/{id})", r.edit},
		{"Partial Edit (PATCH /calculations/{id})", r.patch},
		{"Delete Calculation (DELETE /calculations/{id})", r.delete},
		{"Verify Deletion", r.verifyDeletion},
		{"Error Handling - Division by Zero", r.divisionByZero},
		{"Authentication Requirement", r.authenticationRequired},
		{"Invalid Credentials", r.invalidCredentials},
	}
}

// Run executes every step in order and returns at the first failure. The
// returned error is an *AssertionError for a response mismatch, or the
// transport error otherwise.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	st := &state{}

	for i, s := range r.steps() {
		headerColor.Fprintf(r.out, "\nTEST %d: %s\n", i+1, s.name)

		start := time.Now()
		err := s.run(ctx, st)
		report.Results = append(report.Results, StepResult{
			Number:   i + 1,
			Name:     s.name,
			Passed:   err == nil,
			Duration: time.Since(start),
			Err:      err,
		})
		if err != nil {
			var ae *AssertionError
			if errors.As(err, &ae) && ae.Step == "" {
				ae.Step = s.name
			} else if ae == nil {
				err = fmt.Errorf("%s: %w", s.name, err)
			}
			failColor.Fprintf(r.out, "FAIL: %v\n", err)
			return report, err
		}
	}

	r.printSummary(report)
	return report, nil
}

func (r *Runner) register(ctx context.Context, _ *state) error {
	resp, err := r.client.Register(ctx, client.RegisterRequest{
		Username: r.creds.Username,
		Email:    r.creds.Email,
		Password: r.creds.Password,
	})
	if err != nil {
		return err
	}
	printResponse(r.out, "Register User", resp)
	if err := expectStatus(resp, 201); err != nil {
		return err
	}
	var body map[string]any
	if err := decode(resp, &body); err != nil {
		return err
	}
	if err := expectKeys(body, "username"); err != nil {
		return err
	}
	if body["username"] != r.creds.Username {
		return failf("expected username %q, got %v", r.creds.Username, body["username"])
	}
	pass(r.out, "User registered successfully")
	return nil
}

func (r *Runner) login(ctx context.Context, _ *state) error {
	resp, err := r.client.Login(ctx, r.creds.Username, r.creds.Password)
	if err != nil {
		return err
	}
	printResponse(r.out, "Login User", resp)
	if err := expectStatus(resp, 200); err != nil {
		return err
	}
	var body map[string]any
	if err := decode(resp, &body); err != nil {
		return err
	}
	if err := expectKeys(body, "access_token", "user"); err != nil {
		return err
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		return failf("access_token is empty")
	}
	r.client.SetToken(token)
	pass(r.out, "User logged in, token received")
	return nil
}

func (r *Runner) currentUser(ctx context.Context, _ *state) error {
	resp, err := r.client.Me(ctx)
	if err != nil {
		return err
	}
	printResponse(r.out, "Get Current User", resp)
	if err := expectStatus(resp, 200); err != nil {
		return err
	}
	var user models.User
	if err := decode(resp, &user); err != nil {
		return err
	}
	if user.Username != r.creds.Username {
		return failf("expected username %q, got %q", r.creds.Username, user.Username)
	}
	pass(r.out, "Current user retrieved with token")
	return nil
}

func (r *Runner) addCalculation(ctx context.Context, st *state) error {
	resp, err := r.client.CreateCalculation(ctx, client.CalculationRequest{A: 10.5, B: 5.2, Type: models.Add})
	if err != nil {
		return err
	}
	printResponse(r.out, "Add Calculation", resp)
	if err := expectStatus(resp, 201); err != nil {
		return err
	}
	var calc models.Calculation
	if err := decode(resp, &calc); err != nil {
		return err
	}
	if err := expectResult(calc.Result, 15.7); err != nil {
		return err
	}
	if calc.ID == 0 {
		return failf("expected a calculation id")
	}
	st.calcID = calc.ID
	pass(r.out, "Calculation created with correct result")
	return nil
}

func (r *Runner) browse(ctx context.Context, _ *state) error {
	resp, err := r.client.ListCalculations(ctx)
	if err != nil {
		return err
	}
	printResponse(r.out, "Browse Calculations", resp)
	if err := expectStatus(resp, 200); err != nil {
		return err
	}
	var calcs []models.Calculation
	if err := decode(resp, &calcs); err != nil {
		return err
	}
	if len(calcs) == 0 {
		return failf("expected at least one calculation, got none")
	}
	pass(r.out, "Calculations list retrieved")
	return nil
}

func (r *Runner) read(ctx context.Context, st *state) error {
	resp, err := r.client.GetCalculation(ctx, st.calcID)
	if err != nil {
		return err
	}
	printResponse(r.out, "Read Calculation", resp)
	if err := expectStatus(resp, 200); err != nil {
		return err
	}
	var calc models.Calculation
	if err := decode(resp, &calc); err != nil {
		return err
	}
	if calc.ID != st.calcID {
		return failf("expected id %d, got %d", st.calcID, calc.ID)
	}
	pass(r.out, "Specific calculation retrieved")
	return nil
}

func (r *Runner) createMultiple(ctx context.Context, _ *state) error {
	operations := []struct {
		req      client.CalculationRequest
		expected float64
	}{
		{client.CalculationRequest{A: 20, B: 4, Type: models.Subtract}, 16},
		{client.CalculationRequest{A: 6, B: 7, Type: models.Multiply}, 42},
		{client.CalculationRequest{A: 15, B: 3, Type: models.Divide}, 5},
	}

	for _, op := range operations {
		resp, err := r.client.CreateCalculation(ctx, op.req)
		if err != nil {
			return err
		}
		if err := expectStatus(resp, 201); err != nil {
			return err
		}
		var calc models.Calculation
		if err := decode(resp, &calc); err != nil {
			return err
		}
		if err := expectResult(calc.Result, op.expected); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "  - %g %s %g = %g\n", op.req.A, op.req.Type, op.req.B, calc.Result)
	}
	pass(r.out, "All calculation types work correctly")
	return nil
}

func (r *Runner) edit(ctx context.Context, st *state) error {
	resp, err := r.client.UpdateCalculation(ctx, st.calcID, client.CalculationRequest{A: 30, B: 10, Type: models.Multiply})
	if err != nil {
		return err
	}
	printResponse(r.out, "Edit Calculation (PUT)", resp)
	if err := expectStatus(resp, 200); err != nil {
		return err
	}
	var calc models.Calculation
	if err := decode(resp, &calc); err != nil {
		return err
	}
	if err := expectResult(calc.Result, 300); err != nil {
		return err
	}
	pass(r.out, "Calculation updated successfully")
	return nil
}

func (r *Runner) patch(ctx context.Context, st *state) error {
	b := 5.0
	resp, err := r.client.PatchCalculation(ctx, st.calcID, client.CalculationPatch{B: &b})
	if err != nil {
		return err
	}
	printResponse(r.out, "Edit Calculation (PATCH)", resp)
	if err := expectStatus(resp, 200); err != nil {
		return err
	}
	var calc models.Calculation
	if err := decode(resp, &calc); err != nil {
		return err
	}
	// 30 * 5 after the PUT above.
	if err := expectResult(calc.Result, 150); err != nil {
		return err
	}
	pass(r.out, "Partial update works correctly")
	return nil
}

func (r *Runner) delete(ctx context.Context, st *state) error {
	resp, err := r.client.DeleteCalculation(ctx, st.calcID)
	if err != nil {
		return err
	}
	printResponse(r.out, "Delete Calculation", resp)
	if err := expectStatus(resp, 200); err != nil {
		return err
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := decode(resp, &body); err != nil {
		return err
	}
	if !strings.Contains(body.Message, "deleted successfully") {
		return failf("expected deletion message, got %q", body.Message)
	}
	pass(r.out, "Calculation deleted successfully")
	return nil
}

func (r *Runner) verifyDeletion(ctx context.Context, st *state) error {
	resp, err := r.client.GetCalculation(ctx, st.calcID)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, 404); err != nil {
		return err
	}
	pass(r.out, "Deleted calculation no longer accessible")
	return nil
}

func (r *Runner) divisionByZero(ctx context.Context, _ *state) error {
	resp, err := r.client.CreateCalculation(ctx, client.CalculationRequest{A: 10, B: 0, Type: models.Divide})
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Status Code: %d\nResponse: %s\n", resp.StatusCode, resp.Pretty())
	if err := expectStatus(resp, 422); err != nil {
		return err
	}
	pass(r.out, "Division by zero properly rejected")
	return nil
}

func (r *Runner) authenticationRequired(ctx context.Context, _ *state) error {
	resp, err := r.client.Anonymous().ListCalculations(ctx)
	if err != nil {
		return err
	}
	if err := expectStatus(resp, 403); err != nil {
		return err
	}
	pass(r.out, "Endpoints properly require authentication")
	return nil
}

func (r *Runner) invalidCredentials(ctx context.Context, _ *state) error {
	resp, err := r.client.Anonymous().Login(ctx, "nonexistent", "wrongpassword")
	if err != nil {
		return err
	}
	printResponse(r.out, "Invalid Login", resp)
	if err := expectStatus(resp, 401); err != nil {
		return err
	}
	pass(r.out, "Invalid credentials rejected")
	return nil
}

func failf(format string, args ...any) error {
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}

func expectStatus(resp *client.Response, want int) error {
	if resp.StatusCode != want {
		return failf("Expected %d, got %d", want, resp.StatusCode)
	}
	return nil
}

func expectResult(got, want float64) error {
	if math.Abs(got-want) > floatTolerance {
		return failf("expected result %g, got %g", want, got)
	}
	return nil
}

func expectKeys(body map[string]any, keys ...string) error {
	for _, k := range keys {
		if _, ok := body[k]; !ok {
			return failf("response has no %q field", k)
		}
	}
	return nil
}

func decode(resp *client.Response, v any) error {
	if err := resp.Decode(v); err != nil {
		return failf("unexpected response body: %v", err)
	}
	return nil
}
