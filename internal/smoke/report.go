package smoke

import (
	"fmt"
	"io"
	"strings"
	"time"

	"bread-calculator/internal/client"

	"github.com/fatih/color"
	"github.com/rodaine/table"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	passColor   = color.New(color.FgGreen)
	failColor   = color.New(color.FgRed, color.Bold)
)

var rule = strings.Repeat("=", 70)

func printResponse(out io.Writer, title string, resp *client.Response) {
	fmt.Fprintf(out, "\n%s\n%s\n%s\n", rule, title, rule)
	fmt.Fprintf(out, "Status Code: %d\n", resp.StatusCode)
	fmt.Fprintf(out, "Response:\n%s\n", resp.Pretty())
}

func pass(out io.Writer, msg string) {
	passColor.Fprintf(out, "PASS: %s\n", msg)
}

func newTable(out io.Writer, headers ...interface{}) table.Table {
	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	return table.New(headers...).WithWriter(out).WithHeaderFormatter(headerFmt)
}

func (r *Runner) printSummary(report *Report) {
	fmt.Fprintf(r.out, "\n%s\n", rule)
	passColor.Fprintln(r.out, "ALL TESTS PASSED!")
	fmt.Fprintf(r.out, "%s\n\n", rule)

	tbl := newTable(r.out, "#", "Step", "Result", "Duration")
	for _, res := range report.Results {
		tbl.AddRow(res.Number, res.Name, "PASS", res.Duration.Round(time.Millisecond))
	}
	tbl.Print()

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "Summary:")
	fmt.Fprintln(r.out, "  - User registration and login")
	fmt.Fprintln(r.out, "  - JWT token authentication")
	fmt.Fprintln(r.out, "  - Browse calculations (GET /calculations)")
	fmt.Fprintln(r.out, "  - Read calculation (GET /calculations/{id})")
	fmt.Fprintln(r.out, "  - Edit calculation (PUT/PATCH /calculations/{id})")
	fmt.Fprintln(r.out, "  - Add calculation (POST /calculations)")
	fmt.Fprintln(r.out, "  - Delete calculation (DELETE /calculations/{id})")
	fmt.Fprintln(r.out, "  - Error handling and validation")
	fmt.Fprintln(r.out, "  - Authentication requirements")
}

func printChecks(out io.Writer, results []CheckResult) {
	tbl := newTable(out, "Check", "Status", "Result", "Detail")
	for _, res := range results {
		verdict := "PASS"
		if !res.Passed {
			verdict = "FAIL"
		}
		tbl.AddRow(res.Name, res.StatusCode, verdict, res.Detail)
	}
	tbl.Print()
}
