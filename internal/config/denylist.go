package config

// DefaultDenylistDomains returns domains whose visits are never recorded:
// banking, password managers, identity providers and health portals.
func DefaultDenylistDomains() []string {
	return []string{
		// Banking & Financial
		"chase.com",
		"bankofamerica.com",
		"wellsfargo.com",
		"capitalone.com",
		"schwab.com",
		"fidelity.com",
		"paypal.com",
		"venmo.com",

		// Password Managers
		"1password.com",
		"lastpass.com",
		"bitwarden.com",

		// Authentication & Identity
		"accounts.google.com",
		"login.microsoftonline.com",
		"login.live.com",
		"okta.com",
		"login.gov",
		"id.me",

		// Healthcare
		"mychart.com",
		"healthcare.gov",
		"medicare.gov",

		// Tax
		"irs.gov",
		"turbotax.intuit.com",
	}
}

// Domains merges the built-in list with the configured extras,
// dropping duplicates.
func (c CaptureConfig) Domains() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range append(DefaultDenylistDomains(), c.DenylistDomains...) {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
