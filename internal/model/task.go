package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task statuses. The lifecycle is monotonic: pending -> in-progress ->
// collected -> verified, except rejection, which moves a collected task to
// a terminal rejected state instead of verified.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCollected  = "collected"
	StatusVerified   = "verified"
	StatusRejected   = "rejected"
)

// statusAliases maps external status labels onto internal ones. Older
// clients send "completed" when a collector finishes a pickup; internally
// that state is called "collected".
var statusAliases = map[string]string{
	"completed": StatusCollected,
}

// NormalizeStatus resolves client-supplied status labels to their internal
// names. Unknown labels pass through unchanged; validation happens at the
// lifecycle service.
func NormalizeStatus(s string) string {
	if mapped, ok := statusAliases[s]; ok {
		return mapped
	}
	return s
}

// ValidStatus reports whether s is one of the internal lifecycle states.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCollected, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// Waste categories recognized by the system.
const (
	WasteOrganic   = "organic"
	WastePlastic   = "plastic"
	WasteMetal     = "metal"
	WastePaper     = "paper"
	WasteHazardous = "hazardous"
	WasteGeneral   = "general"
)

// WastePoints is the fixed category -> award table. Harder-to-process
// categories such as hazardous waste earn more.
var WastePoints = map[string]int{
	WasteOrganic:   10,
	WastePlastic:   15,
	WasteMetal:     20,
	WastePaper:     10,
	WasteHazardous: 25,
	WasteGeneral:   5,
}

// PointsFor returns the award for a waste category. The lookup is
// case-insensitive and unrecognized categories fall back to the general
// tier.
func PointsFor(wasteType string) int {
	if pts, ok := WastePoints[strings.ToLower(strings.TrimSpace(wasteType))]; ok {
		return pts
	}
	return WastePoints[WasteGeneral]
}

// DefaultTaskImage is stored when a report arrives without a photo.
const DefaultTaskImage = "/placeholder-waste.jpg"

// Coordinates is an optional geographic point attached to a report.
type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Task is a document in the `tasks` collection: one waste report and its
// collection lifecycle. CitizenID is set at creation and never changes;
// CollectorID is assigned when a collector claims the task. Date is the
// report's calendar date as a YYYY-MM-DD string, which is what the
// dashboard aggregation buckets on.
type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	WasteType   string             `bson:"waste_type" json:"wasteType"`
	Amount      string             `bson:"amount" json:"amount"`
	Location    string             `bson:"location" json:"location"`
	Coordinates *Coordinates       `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	Date        string             `bson:"date" json:"date"`
	Status      string             `bson:"status" json:"status"`
	CitizenID   string             `bson:"citizen_id" json:"citizenId"`
	CollectorID string             `bson:"collector_id,omitempty" json:"collectorId,omitempty"`
	ImageURL    string             `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
	ProofImage  string             `bson:"proof_image,omitempty" json:"proofImage,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"-"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"-"`
}
