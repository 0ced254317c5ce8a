package storage

import "time"

// VisitRow is a single recorded visit. Timestamp is always UTC.
type VisitRow struct {
	Domain    string
	Timestamp time.Time
}

// VisitRecord is a visit on its way into the store, as produced by a
// loader. Timestamp is already in the canonical "YYYY-MM-DD HH:MM:SS" form.
type VisitRecord struct {
	Domain    string
	Timestamp string
	Title     string
}

// DomainRecord is one row of the domains table. Empty strings and a nil
// FaviconData stand for NULL columns.
type DomainRecord struct {
	Domain          string
	Title           string
	PrimaryCategory string
	FaviconType     string
	FaviconData     []byte
}

// Stats holds aggregate statistics about the history database.
type Stats struct {
	TotalVisits        int64
	TotalDomains       int64
	CategorizedDomains int64
	FaviconDomains     int64
	OldestVisit        time.Time
	NewestVisit        time.Time
	DatabaseSizeBytes  int64
	TopDomains         []DomainCount
}

// DomainCount pairs a domain with its visit count.
type DomainCount struct {
	Domain string
	Count  int64
}
