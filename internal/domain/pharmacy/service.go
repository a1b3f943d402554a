package pharmacy

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/ai"
	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/dispatch"
	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/inventory"
)

// Extractor reads medicines off prescription images.
type Extractor interface {
	ExtractMedicines(ctx context.Context, images [][]byte) (*ai.Extraction, error)
}

// Matcher resolves an extracted name against the inventory. The inventory
// store satisfies it.
type Matcher interface {
	Match(originalName string) inventory.Match
}

// Dispatcher delivers one order to the pharmacy service. The dispatch
// client satisfies it.
type Dispatcher interface {
	Send(ctx context.Context, order dispatch.Order) dispatch.Result
}

// ApprovalItem is one medicine the doctor selected for dispatch.
type ApprovalItem struct {
	CorrectedName string `json:"corrected_name"`
	Price         string `json:"price"`
}

type Service struct {
	scans      ScanRepository
	extractor  Extractor
	inv        Matcher
	dispatcher Dispatcher
	logger     zerolog.Logger
}

func NewService(scans ScanRepository, extractor Extractor, inv Matcher, dispatcher Dispatcher, logger zerolog.Logger) *Service {
	return &Service{scans: scans, extractor: extractor, inv: inv, dispatcher: dispatcher, logger: logger}
}

// Analyze extracts medicines from the images, checks each against the
// inventory, and stores the scan awaiting doctor review. A malformed model
// response surfaces as *ai.MalformedExtractionError and persists nothing.
func (s *Service) Analyze(ctx context.Context, images [][]byte) (*Scan, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	ext, err := s.extractor.ExtractMedicines(ctx, images)
	if err != nil {
		return nil, err
	}

	matches := make([]inventory.Match, 0, len(ext.Medicines))
	for _, med := range ext.Medicines {
		matches = append(matches, s.inv.Match(med.MedicineName))
	}

	scan := &Scan{
		Status:             StatusReviewRequired,
		ExtractedMedicines: ext.Medicines,
		InventoryStatus:    matches,
		ApprovedMedicines:  []ApprovedMedicine{},
	}
	if err := s.scans.Insert(ctx, scan); err != nil {
		return nil, fmt.Errorf("insert scan: %w", err)
	}

	s.logger.Info().
		Str("scan_id", scan.ID.Hex()).
		Int("medicines", len(ext.Medicines)).
		Msg("prescription scan stored for review")
	return scan, nil
}

// Approve dispatches the selected medicines one by one and records each
// outcome on the identified scan. A failed item never aborts its siblings;
// the per-item result carries the failure.
func (s *Service) Approve(ctx context.Context, scanID string, items []ApprovalItem) ([]ApprovedMedicine, error) {
	if len(items) == 0 {
		return nil, ErrNoMedicinesSelected
	}
	if _, err := s.scans.GetByID(ctx, scanID); err != nil {
		return nil, err
	}

	approved := make([]ApprovedMedicine, 0, len(items))
	for _, item := range items {
		result := s.dispatcher.Send(ctx, dispatch.Order{
			MedicineName: item.CorrectedName,
			Price:        item.Price,
			Quantity:     1,
		})
		if !result.Sent {
			s.logger.Warn().
				Str("scan_id", scanID).
				Str("medicine", item.CorrectedName).
				Str("error", result.Error).
				Msg("pharmacy dispatch failed")
		}
		approved = append(approved, ApprovedMedicine{
			CorrectedName: item.CorrectedName,
			Price:         item.Price,
			Quantity:      1,
			Dispatch:      result,
		})
	}

	if err := s.scans.SetApproved(ctx, scanID, StatusSentToPharmacy, approved); err != nil {
		return nil, fmt.Errorf("update scan: %w", err)
	}
	return approved, nil
}

func (s *Service) GetScan(ctx context.Context, id string) (*Scan, error) {
	return s.scans.GetByID(ctx, id)
}

// Latest returns the most recent scan, or ErrScanNotFound when none exist.
func (s *Service) Latest(ctx context.Context) (*Scan, error) {
	return s.scans.Latest(ctx)
}

func (s *Service) ListScans(ctx context.Context, limit, offset int) ([]*Scan, int, error) {
	return s.scans.List(ctx, limit, offset)
}
