// Package analysis scores a URL and an email body for common phishing signals.
package analysis

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

type Risk string

const (
	RiskLow    Risk = "LOW"
	RiskMedium Risk = "MEDIUM"
	RiskHigh   Risk = "HIGH"
)

const (
	scoreInsecureScheme = 20
	scoreIPHost         = 25
	scoreLongURL        = 10
	scoreInvalidURL     = 20
	scoreKeyword        = 5
	scoreSensitive      = 30

	maxURLLength = 120
)

var ipv4Host = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)

var phishingKeywords = []string{
	"urgent", "immediately", "important", "alert", "deadline",
	"suspended", "terminated", "locked", "warning",
	"verify", "verify now", "update", "update now",
	"confirm", "confirm now", "authenticate", "reset",
	"login", "password", "account", "security",
	"access", "unauthorized", "identity",
	"bank", "payment", "transaction", "invoice", "refund", "billing",
	"winner", "gift", "free", "reward", "cashback", "prize",
	"package", "shipment", "otp", "tracking", "delivery hold",
	"click here", "click the link", "verify your account",
	"security update", "your account has been suspended",
}

var sensitiveTerms = []string{"password", "bank", "credit card", "otp", "verify"}

// Report is the outcome of one analysis
type Report struct {
	Score    int      `json:"score"`
	Risk     Risk     `json:"risk"`
	Findings []string `json:"findings"`
}

// Analyze scores rawURL and emailBody. Either may be empty, in which case it is skipped.
func Analyze(emailBody, rawURL string) Report {
	report := Report{Findings: []string{}}

	if rawURL != "" {
		findings, score := AnalyzeURL(rawURL)
		report.Findings = append(report.Findings, findings...)
		report.Score += score
	}

	if emailBody != "" {
		findings, score := AnalyzeEmail(emailBody)
		report.Findings = append(report.Findings, findings...)
		report.Score += score
	}

	report.Risk = RiskFor(report.Score)
	return report
}

// AnalyzeURL checks scheme, host and length
func AnalyzeURL(rawURL string) ([]string, int) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return []string{"Invalid URL format."}, scoreInvalidURL
	}

	var findings []string
	score := 0

	if parsed.Scheme == "http" {
		findings = append(findings, "URL uses insecure HTTP.")
		score += scoreInsecureScheme
	}

	if ipv4Host.MatchString(parsed.Hostname()) {
		findings = append(findings, "URL uses an IP address instead of domain.")
		score += scoreIPHost
	}

	if len(rawURL) > maxURLLength {
		findings = append(findings, "URL is unusually long.")
		score += scoreLongURL
	}

	if len(findings) == 0 {
		findings = append(findings, "URL appears safe.")
	}
	return findings, score
}

// AnalyzeEmail counts phishing keywords and flags requests for sensitive data
func AnalyzeEmail(body string) ([]string, int) {
	lower := strings.ToLower(body)

	var findings []string
	score := 0

	for _, keyword := range phishingKeywords {
		if strings.Contains(lower, keyword) {
			findings = append(findings, fmt.Sprintf("Phishing keyword detected: '%s'", keyword))
			score += scoreKeyword
		}
	}

	for _, term := range sensitiveTerms {
		if strings.Contains(lower, term) {
			findings = append(findings, "Email requests sensitive information.")
			score += scoreSensitive
			break
		}
	}

	if len(findings) == 0 {
		findings = append(findings, "Email content appears normal.")
	}
	return findings, score
}

// RiskFor maps a score to a risk band
func RiskFor(score int) Risk {
	switch {
	case score <= 20:
		return RiskLow
	case score <= 50:
		return RiskMedium
	default:
		return RiskHigh
	}
}
