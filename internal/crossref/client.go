// Package crossref resolves DOIs to publication metadata through the
// Crossref works API.
package crossref

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"literature-manager/internal/domain"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.crossref.org"
	DefaultTimeout = 10 * time.Second

	// Crossref asks anonymous clients to stay well below 50 requests per second.
	RateLimit = 5.0
)

var (
	ErrMissingTitle = errors.New("no title in DOI metadata")
	ErrMissingYear  = errors.New("no publication year in DOI metadata")
	ErrUpstream     = errors.New("DOI lookup failed")
	ErrEmptyDOI     = errors.New("DOI is empty")
)

// Author is a contributor as reported by Crossref.
type Author struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	ORCID     *string `json:"orcid"`
}

// Metadata is the normalized record for one DOI.
type Metadata struct {
	DOI             string                 `json:"doi"`
	Title           string                 `json:"title"`
	Year            uint                   `json:"year"`
	Abstract        string                 `json:"abstract"`
	JournalTitle    string                 `json:"journal_title"`
	ISSN            string                 `json:"issn"`
	Authors         []Author               `json:"authors"`
	Volume          string                 `json:"volume"`
	Pages           string                 `json:"pages"`
	PublicationType domain.PublicationType `json:"publication_type"`
}

type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMailto identifies the caller for Crossref's polite pool.
func WithMailto(mailto string) ClientOption {
	return func(c *Client) {
		c.mailto = mailto
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type worksResponse struct {
	Message work `json:"message"`
}

type dateParts struct {
	DateParts [][]int `json:"date-parts"`
}

type contributor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	ORCID  string `json:"ORCID"`
}

type work struct {
	Title           []string      `json:"title"`
	PublishedPrint  *dateParts    `json:"published-print"`
	PublishedOnline *dateParts    `json:"published-online"`
	Issued          *dateParts    `json:"issued"`
	Abstract        string        `json:"abstract"`
	ContainerTitle  []string      `json:"container-title"`
	ISSN            []string      `json:"ISSN"`
	Author          []contributor `json:"author"`
	Volume          string        `json:"volume"`
	Page            string        `json:"page"`
	Type            string        `json:"type"`
}

// NormalizeDOI trims whitespace and a leading resolver URL or "doi:" prefix.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	lower := strings.ToLower(doi)
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(doi[len(prefix):])
		}
	}
	return doi
}

// Lookup fetches and normalizes the metadata of doi.
func (c *Client) Lookup(ctx context.Context, doi string) (*Metadata, error) {
	doi = NormalizeDOI(doi)
	if doi == "" {
		return nil, ErrEmptyDOI
	}

	endpoint, err := url.JoinPath(c.baseURL, "works", doi)
	if err != nil {
		return nil, fmt.Errorf("building DOI url: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	ua := "literature-manager/1.0"
	if c.mailto != "" {
		ua += " (mailto:" + c.mailto + ")"
	}
	req.Header.Set("User-Agent", ua)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var payload worksResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUpstream, err)
	}

	meta, err := normalize(payload.Message)
	if err != nil {
		return nil, err
	}
	meta.DOI = doi
	return meta, nil
}

func normalize(w work) (*Metadata, error) {
	title := strings.TrimSpace(first(w.Title))
	if title == "" {
		return nil, ErrMissingTitle
	}

	year := extractYear(w.PublishedPrint, w.PublishedOnline, w.Issued)
	if year == 0 {
		return nil, ErrMissingYear
	}

	return &Metadata{
		Title:           title,
		Year:            year,
		Abstract:        StripMarkup(w.Abstract),
		JournalTitle:    strings.TrimSpace(first(w.ContainerTitle)),
		ISSN:            strings.TrimSpace(first(w.ISSN)),
		Authors:         parseAuthors(w.Author),
		Volume:          w.Volume,
		Pages:           w.Page,
		PublicationType: MapType(w.Type),
	}, nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// extractYear returns the first year found in print, online and issued dates.
func extractYear(candidates ...*dateParts) uint {
	for _, d := range candidates {
		if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
			continue
		}
		if y := d.DateParts[0][0]; y > 0 {
			return uint(y)
		}
	}
	return 0
}

func parseAuthors(entries []contributor) []Author {
	authors := make([]Author, 0, len(entries))
	for _, e := range entries {
		firstName := strings.TrimSpace(e.Given)
		lastName := strings.TrimSpace(e.Family)
		if firstName == "" && lastName == "" {
			continue
		}
		author := Author{FirstName: firstName, LastName: lastName}
		if orcid := stripORCIDPrefix(e.ORCID); orcid != "" {
			author.ORCID = &orcid
		}
		authors = append(authors, author)
	}
	return authors
}

func stripORCIDPrefix(orcid string) string {
	orcid = strings.TrimSpace(orcid)
	orcid = strings.TrimPrefix(orcid, "https://orcid.org/")
	return strings.TrimPrefix(orcid, "http://orcid.org/")
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripMarkup removes JATS/HTML tags from an abstract.
func StripMarkup(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// MapType classifies a Crossref work type.
func MapType(raw string) domain.PublicationType {
	switch raw {
	case "proceedings-article", "proceedings":
		return domain.PublicationTypeProceedings
	case "book", "monograph":
		return domain.PublicationTypeBook
	default:
		return domain.PublicationTypeArticle
	}
}
