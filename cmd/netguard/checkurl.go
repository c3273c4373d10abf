package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/user/netguard/internal/client"
)

var checkURLCmd = &cobra.Command{
	Use:   "check-url <url>",
	Short: "Check a URL for phishing",
	Long: `Submit a URL to the monitoring API's phishing checker and print the verdict.

Examples:
  netguard check-url https://example.com/login`,
	Args: cobra.ExactArgs(1),
	RunE: runCheckURL,
}

func runCheckURL(cmd *cobra.Command, args []string) error {
	if err := client.ValidateURL(args[0]); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	c := client.New(cfg.APIBaseURL, cfg.AuthToken, cfg.RequestTimeout)
	res, err := c.CheckURL(ctx, args[0])
	if err != nil {
		return err
	}

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(26)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	badStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	goodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)

	verdict := goodStyle.Render("Safe")
	if res.IsPhishing {
		verdict = badStyle.Render("Phishing")
	}

	fmt.Printf("%s %s\n", labelStyle.Render("URL:"), valueStyle.Render(res.URL))
	fmt.Printf("%s %s\n", labelStyle.Render("Verdict:"), verdict)
	fmt.Printf("%s %s\n", labelStyle.Render("Confidence:"), valueStyle.Render(fmt.Sprintf("%.0f%%", res.ConfidenceScore)))
	fmt.Printf("%s %s\n", labelStyle.Render("Threat level:"), valueStyle.Render(res.ThreatLevel))

	a := res.Analysis
	rows := []struct {
		label string
		value *bool
	}{
		{"Suspicious keywords:", a.SuspiciousKeywords},
		{"TLS certificate valid:", a.TLSCertificateValid},
		{"Misleading domain:", a.MisleadingDomain},
		{"Suspicious redirects:", a.SuspiciousRedirects},
		{"Blacklisted:", a.Blacklisted},
		{"Similar to known phishing:", a.SimilarToKnownPhishing},
	}

	fmt.Println()
	if a.DomainAgeDays != nil {
		fmt.Printf("%s %s\n", labelStyle.Render("Domain age (days):"), valueStyle.Render(strconv.Itoa(*a.DomainAgeDays)))
	}
	for _, r := range rows {
		if r.value == nil {
			continue
		}
		fmt.Printf("%s %s\n", labelStyle.Render(r.label), valueStyle.Render(strconv.FormatBool(*r.value)))
	}

	return nil
}
