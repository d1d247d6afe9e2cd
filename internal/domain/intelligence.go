package domain

// Intelligence holds structured entities extracted from a scam conversation.
// Each field keeps extraction order and is not deduplicated: every extraction
// pass replaces the previous snapshot wholesale rather than merging into it.
type Intelligence struct {
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhishingLinks      []string `json:"phishingLinks"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// EmptyIntelligence returns an Intelligence with all fields non-nil and empty,
// so JSON output renders arrays instead of nulls.
func EmptyIntelligence() Intelligence {
	return Intelligence{
		BankAccounts:       []string{},
		UPIIDs:             []string{},
		PhishingLinks:      []string{},
		PhoneNumbers:       []string{},
		SuspiciousKeywords: []string{},
	}
}

// IsEmpty reports whether no entities of any kind were extracted.
func (i Intelligence) IsEmpty() bool {
	return len(i.BankAccounts) == 0 &&
		len(i.UPIIDs) == 0 &&
		len(i.PhishingLinks) == 0 &&
		len(i.PhoneNumbers) == 0 &&
		len(i.SuspiciousKeywords) == 0
}

// TotalEntities counts extracted entities across all kinds.
func (i Intelligence) TotalEntities() int {
	return len(i.BankAccounts) +
		len(i.UPIIDs) +
		len(i.PhishingLinks) +
		len(i.PhoneNumbers) +
		len(i.SuspiciousKeywords)
}
