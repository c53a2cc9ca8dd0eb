package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	idnaProfile  = idna.Lookup
)

const defaultPhoneRegion = "BR"

// ContactNormalizer validates and canonicalizes organizer contact data.
type ContactNormalizer struct {
	region string
}

// NewContactNormalizer uses region to parse phone numbers without a country code.
func NewContactNormalizer(region string) *ContactNormalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = defaultPhoneRegion
	}
	return &ContactNormalizer{region: region}
}

// Email lower-cases the address and converts an internationalized domain to
// its ASCII form.
func (n *ContactNormalizer) Email(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", fmt.Errorf("invalid contact email %q", raw)
	}
	local, domain := email[:at], email[at+1:]

	asciiDomain, err := idnaProfile.ToASCII(domain)
	if err != nil || asciiDomain == "" || !isDomainValid(asciiDomain) {
		return "", fmt.Errorf("invalid contact email domain %q", domain)
	}
	normalized := local + "@" + asciiDomain
	if !emailPattern.MatchString(normalized) {
		return "", fmt.Errorf("invalid contact email %q", raw)
	}
	return normalized, nil
}

// Phone returns the number in E.164 form.
func (n *ContactNormalizer) Phone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("contact phone is required")
	}
	number, err := phonenumbers.Parse(raw, n.region)
	if err != nil {
		return "", fmt.Errorf("invalid contact phone %q: %w", raw, err)
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return "", fmt.Errorf("invalid contact phone %q", raw)
	}
	return phonenumbers.Format(number, phonenumbers.E164), nil
}

// Document keeps only the digits of a tax document number.
func (n *ContactNormalizer) Document(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("document number is required")
	}
	return b.String(), nil
}

func isDomainValid(domain string) bool {
	if strings.Count(domain, ".") == 0 {
		return false
	}
	for _, part := range strings.Split(domain, ".") {
		if part == "" || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return false
		}
	}
	return true
}
