package domain

// Email is a message submitted by the client for keyword search.
type Email struct {
	ID      any    `json:"id"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SearchHit is a matching email with a short context window.
type SearchHit struct {
	ID      any    `json:"id"`
	Subject string `json:"subject"`
	Snippet string `json:"snippet"`
}

// SearchResult is the response of the email assistant search.
type SearchResult struct {
	Result string      `json:"result"`
	Emails []SearchHit `json:"emails"`
}
