package domain

// Page is the transient result of fetching and parsing one URL. Pages are not
// persisted; they exist only for the duration of one ingestion call.
type Page struct {
	URL     string
	Domain  string
	Title   string
	RawHTML string
	Text    string   // Cleaned text after boilerplate removal
	Links   []string // Raw href values, collected before boilerplate removal
}
