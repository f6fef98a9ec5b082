package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/hamed0406/hostsentry/internal/domain"
)

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	url := api + "/api/checks"
	if len(os.Args) > 1 {
		url = api + "/api/checks/" + os.Args[1]
	}

	resp, err := http.Get(url)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Println("API returned status:", resp.Status)
		os.Exit(1)
	}

	if len(os.Args) > 1 {
		var r domain.Report
		if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
			fmt.Println("Bad response:", err)
			os.Exit(1)
		}
		printReport(r)
		return
	}

	var rs domain.ResultSet
	if err := json.NewDecoder(resp.Body).Decode(&rs); err != nil {
		fmt.Println("Bad response:", err)
		os.Exit(1)
	}
	for _, r := range rs.Checks {
		printReport(r)
	}
	fmt.Printf("\nScore: %d/100 (%d passed, %d warnings, %d critical of %d checks)\n",
		rs.OverallScore, rs.Passed, rs.Warnings, rs.Critical, rs.TotalChecks)
}

func printReport(r domain.Report) {
	fmt.Printf("%s %-24s %s\n", glyph(r.Status), r.Name, r.Message)
	for _, rec := range r.Recommendations {
		fmt.Printf("    [%s] %s\n", rec.Severity, rec.Message)
	}
}

func glyph(s domain.Status) string {
	switch s {
	case domain.StatusPass:
		return "✔"
	case domain.StatusInfo:
		return "ℹ"
	case domain.StatusWarning:
		return "⚠"
	case domain.StatusCritical:
		return "✖"
	default:
		return "?"
	}
}
