package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// CampaignTag is appended to every AI-generated hashtag set.
const CampaignTag = "#scalencyai"

const defaultPriceSuggestion = 25

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type Measurements struct {
	Shoulder string `json:"shoulder,omitempty"`
	Length   string `json:"length,omitempty"`
}

// ListingDraft is the mutable, pre-submission representation of a listing.
// It is a form-style record: Price stays a string until submission because
// the user edits it as free text.
type ListingDraft struct {
	ImageRef     string
	Title        string
	Description  string
	Price        string
	PriceRange   PriceRange
	Category     string
	Brand        string
	Size         string
	Color        string
	Condition    string
	Material     string
	Measurements Measurements
	Hashtags     []string
}

// NewListingDraft returns an empty draft bound to an uploaded image.
func NewListingDraft(imageRef string) ListingDraft {
	return ListingDraft{
		ImageRef:  imageRef,
		Condition: "Good condition",
	}
}

// Clone returns a deep copy, used to snapshot the draft at submit time so
// concurrent edits cannot affect an in-flight submission.
func (d ListingDraft) Clone() ListingDraft {
	out := d
	out.Hashtags = append([]string(nil), d.Hashtags...)
	return out
}

// AnalysisResult is the structured output of the AI image analysis.
type AnalysisResult struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	Brand           string  `json:"brand"`
	Size            string  `json:"size"`
	Color           string  `json:"color"`
	Condition       string  `json:"condition"`
	Material        string  `json:"material"`
	ShoulderWidth   float64 `json:"shoulderWidth,omitempty"`
	Length          float64 `json:"length,omitempty"`
	PriceSuggestion float64 `json:"priceSuggestion"`
}

// ApplyAnalysis populates the draft from analysis attributes, deriving the
// price band and promotional hashtags.
func (d *ListingDraft) ApplyAnalysis(res AnalysisResult) {
	price := res.PriceSuggestion
	if price <= 0 {
		price = defaultPriceSuggestion
	}

	d.Title = res.Title
	d.Description = res.Description
	d.Price = fmt.Sprintf("%d", int(math.Round(price)))
	d.PriceRange = PriceRange{
		Min: math.Max(price*0.8, 1),
		Max: price * 1.25,
	}
	d.Category = res.Category
	d.Brand = res.Brand
	d.Size = res.Size
	d.Color = res.Color
	d.Condition = res.Condition
	if d.Condition == "" {
		d.Condition = "Very good condition"
	}
	d.Material = res.Material
	if res.ShoulderWidth > 0 {
		d.Measurements.Shoulder = trimFloat(res.ShoulderWidth)
	}
	if res.Length > 0 {
		d.Measurements.Length = trimFloat(res.Length)
	}
	d.Hashtags = deriveHashtags(res.Brand, res.Category)
}

// PriceValue parses the form price, falling back to zero on bad input.
func (d ListingDraft) PriceValue() float64 {
	var v float64
	_, err := fmt.Sscanf(strings.TrimSpace(d.Price), "%f", &v)
	if err != nil {
		return 0
	}
	return v
}

func deriveHashtags(brand, category string) []string {
	brandSlug := slugify(brand)
	if brandSlug == "" {
		brandSlug = "resell"
	}
	catSlug := slugify(lastSegment(category))
	if catSlug == "" {
		catSlug = "vinted"
	}
	return []string{
		"#" + brandSlug + catSlug,
		"#" + brandSlug + "vintage",
		"#technique" + catSlug,
		CampaignTag,
	}
}

func slugify(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

func lastSegment(category string) string {
	parts := strings.Split(category, "/")
	return strings.TrimSpace(parts[len(parts)-1])
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

// ListingSubmission is the immutable payload sent to the ingest endpoint,
// built from a draft snapshot. Hashtags are folded into the description the
// way the marketplace expects them.
type ListingSubmission struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	ImageBase64 string   `json:"image_base64"`
	Category    string   `json:"category"`
	Brand       string   `json:"brand"`
	Size        string   `json:"size"`
	Condition   string   `json:"condition"`
	Material    string   `json:"material"`
	Color       string   `json:"color"`
	Hashtags    []string `json:"hashtags"`
}

// Submission converts a draft snapshot into the ingest payload.
func (d ListingDraft) Submission(imageBase64 string) ListingSubmission {
	description := d.Description
	if len(d.Hashtags) > 0 {
		description = description + "\n\n" + strings.Join(d.Hashtags, " ")
	}
	return ListingSubmission{
		Title:       d.Title,
		Description: description,
		Price:       d.PriceValue(),
		ImageBase64: imageBase64,
		Category:    d.Category,
		Brand:       d.Brand,
		Size:        d.Size,
		Condition:   d.Condition,
		Material:    d.Material,
		Color:       d.Color,
		Hashtags:    append([]string(nil), d.Hashtags...),
	}
}

type ListingStatus string

const (
	ListingActive  ListingStatus = "active"
	ListingSold    ListingStatus = "sold"
	ListingDrafted ListingStatus = "draft"
)

// Listing is a published listing as persisted for inventory and repost
// bookkeeping.
type Listing struct {
	ID           int64         `db:"id"`
	AccountID    string        `db:"account_id"`
	Title        string        `db:"title"`
	Description  string        `db:"description"`
	Price        float64       `db:"price"`
	Category     string        `db:"category"`
	Brand        string        `db:"brand"`
	Size         string        `db:"size"`
	Color        string        `db:"color"`
	Condition    string        `db:"condition"`
	Material     string        `db:"material"`
	Status       ListingStatus `db:"status"`
	RepostCount  int           `db:"repost_count"`
	LastReposted *time.Time    `db:"last_reposted"`
	CreatedAt    time.Time     `db:"created_at"`
}
