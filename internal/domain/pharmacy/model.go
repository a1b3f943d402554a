// Package pharmacy implements the prescription pipeline: scan images,
// extract medicines, check them against the inventory, and dispatch
// doctor-approved items to the pharmacy service.
package pharmacy

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/ai"
	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/dispatch"
	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/inventory"
)

var (
	ErrScanNotFound        = errors.New("scan not found")
	ErrNoImages            = errors.New("no images uploaded")
	ErrNoMedicinesSelected = errors.New("no medicines selected")
)

// Scan statuses.
const (
	StatusReviewRequired = "review_required"
	StatusSentToPharmacy = "sent_to_pharmacy"
)

// ApprovedMedicine is one doctor-approved item with its dispatch outcome.
type ApprovedMedicine struct {
	CorrectedName string          `json:"corrected_name" bson:"corrected_name"`
	Price         string          `json:"price" bson:"price"`
	Quantity      int             `json:"quantity" bson:"quantity"`
	Dispatch      dispatch.Result `json:"pharmacy_dispatch" bson:"pharmacy_dispatch"`
}

// Scan is one prescription scan document.
type Scan struct {
	ID                 primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	Status             string                 `json:"status" bson:"status"`
	ExtractedMedicines []ai.ExtractedMedicine `json:"extracted_medicines" bson:"extracted_medicines"`
	InventoryStatus    []inventory.Match      `json:"inventory_status" bson:"inventory_status"`
	ApprovedMedicines  []ApprovedMedicine     `json:"approved_medicines" bson:"approved_medicines"`
	CreatedAt          time.Time              `json:"created_at" bson:"created_at"`
}
