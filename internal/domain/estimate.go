package domain

import "time"

// Party identifies which side of a claim produced an estimate.
type Party string

const (
	PartyAdjuster   Party = "adjuster"
	PartyContractor Party = "contractor"
)

func (p Party) Valid() bool {
	return p == PartyAdjuster || p == PartyContractor
}

// Estimate is an ingested line-item scope for one claim.
type Estimate struct {
	ID         string     `json:"id"`
	ClaimID    string     `json:"claim_id"`
	Party      Party      `json:"party"`
	Format     string     `json:"format"`
	Reference  string     `json:"reference,omitempty"`
	FileHash   string     `json:"file_hash"`
	ItemCount  int        `json:"item_count"`
	Items      []LineItem `json:"items,omitempty"`
	IngestedAt time.Time  `json:"ingested_at"`
}

// Comparison is a persisted run of the delta engine over the latest
// adjuster and contractor estimates of a claim.
type Comparison struct {
	ID                   string     `json:"id"`
	ClaimID              string     `json:"claim_id"`
	AdjusterEstimateID   string     `json:"adjuster_estimate_id"`
	ContractorEstimateID string     `json:"contractor_estimate_id"`
	Stats                Stats      `json:"stats"`
	Variances            []Variance `json:"variances,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}
