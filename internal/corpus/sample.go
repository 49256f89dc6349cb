package corpus

var samplePolicies = []string{
	"HR Policy: Employees are entitled to 12 weeks parental leave.",
	"IT Policy: Passwords must be updated every 90 days.",
	"Compliance Policy: All customer data must follow GDPR regulations.",
}

// SamplePolicies returns the built-in corpus used when ingestion is run without an input path.
func SamplePolicies() []RawDocument {
	docs := make([]RawDocument, len(samplePolicies))
	for i, text := range samplePolicies {
		docs[i] = RawDocument{Text: text}
	}
	return docs
}
