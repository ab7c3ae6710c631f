package types

import (
	"crypto/sha1"
	"encoding/hex"
)

// Alert records a rule whose threshold was reached on one blob.
type Alert struct {
	ID           string     `json:"id"`            // SHA-1(rule_id, structural_id, blob_id, path), NUL separated
	BlobID       BlobID     `json:"blob_id"`
	RuleID       string     `json:"rule_id"`       // e.g., "sd.credit_card.1"
	RuleName     string     `json:"rule_name"`
	StructuralID string     `json:"structural_id"` // identity of the rule option
	Pattern      string     `json:"pattern"`
	Threshold    int        `json:"threshold"`
	Count        int        `json:"count"` // capped at Threshold
	Verdict      Verdict    `json:"verdict"`
	Provenance   Provenance `json:"-"`
	Path         string     `json:"path,omitempty"`
}

// ComputeID derives the alert ID from the rule, its option, the blob and
// the path it was found at. Identical content at two paths yields two alerts.
func (a *Alert) ComputeID() string {
	h := sha1.New()
	h.Write([]byte(a.RuleID))
	h.Write([]byte{0})
	h.Write([]byte(a.StructuralID))
	h.Write([]byte{0})
	h.Write(a.BlobID[:])
	h.Write([]byte{0})
	h.Write([]byte(a.Path))
	return hex.EncodeToString(h.Sum(nil))
}
