// Package storage persists validation reports and ground truth records
// using NATS KV, so downstream consumers can fetch the latest verdict
// for a building without re-running the pipeline.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/CenterForTheBuiltEnvironment/hhw-brick/validation"
)

// Bucket names for each record type.
const (
	BucketReports     = "HHWBRICK_REPORTS"
	BucketGroundTruth = "HHWBRICK_GROUNDTRUTH"
)

// Store provides report and ground truth storage backed by NATS KV.
// Records are keyed by building tag; a new run overwrites the previous
// verdict and KV history keeps the recent revisions.
type Store struct {
	reports     jetstream.KeyValue
	groundTruth jetstream.KeyValue
}

// NewStore creates a new Store with the given JetStream context.
// It creates the necessary KV buckets if they don't exist.
func NewStore(ctx context.Context, js jetstream.JetStream) (*Store, error) {
	reports, err := getOrCreateBucket(ctx, js, BucketReports)
	if err != nil {
		return nil, fmt.Errorf("create reports bucket: %w", err)
	}

	groundTruth, err := getOrCreateBucket(ctx, js, BucketGroundTruth)
	if err != nil {
		return nil, fmt.Errorf("create ground truth bucket: %w", err)
	}

	return &Store{
		reports:     reports,
		groundTruth: groundTruth,
	}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("hhwbrick %s storage", strings.ToLower(name)),
		History:     5, // Keep last 5 revisions
	})
}

// PutReport stores the validation report for a building.
func (s *Store) PutReport(ctx context.Context, report validation.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if _, err := s.reports.Put(ctx, tagKey(report.Tag), data); err != nil {
		return fmt.Errorf("store report for %s: %w", report.Tag, err)
	}
	return nil
}

// GetReport retrieves the latest report for a building tag.
func (s *Store) GetReport(ctx context.Context, tag string) (validation.Report, error) {
	entry, err := s.reports.Get(ctx, tagKey(tag))
	if err != nil {
		if isNotFound(err) {
			return validation.Report{}, ErrNotFound
		}
		return validation.Report{}, fmt.Errorf("get report for %s: %w", tag, err)
	}

	var report validation.Report
	if err := json.Unmarshal(entry.Value(), &report); err != nil {
		return validation.Report{}, fmt.Errorf("unmarshal report for %s: %w", tag, err)
	}
	return report, nil
}

// ListReports returns the latest report for every stored building.
func (s *Store) ListReports(ctx context.Context) ([]validation.Report, error) {
	keys, err := s.reports.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list report keys: %w", err)
	}

	reports := make([]validation.Report, 0, len(keys))
	for _, key := range keys {
		entry, err := s.reports.Get(ctx, key)
		if err != nil {
			continue // Skip entries that fail to load
		}
		var report validation.Report
		if err := json.Unmarshal(entry.Value(), &report); err != nil {
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// PutGroundTruth stores the ground truth record for a building.
func (s *Store) PutGroundTruth(ctx context.Context, gt validation.GroundTruthRecord) error {
	data, err := json.Marshal(gt)
	if err != nil {
		return fmt.Errorf("marshal ground truth: %w", err)
	}
	if _, err := s.groundTruth.Put(ctx, tagKey(gt.Tag), data); err != nil {
		return fmt.Errorf("store ground truth for %s: %w", gt.Tag, err)
	}
	return nil
}

// GetGroundTruth retrieves the ground truth record for a building tag.
func (s *Store) GetGroundTruth(ctx context.Context, tag string) (validation.GroundTruthRecord, error) {
	entry, err := s.groundTruth.Get(ctx, tagKey(tag))
	if err != nil {
		if isNotFound(err) {
			return validation.GroundTruthRecord{}, ErrNotFound
		}
		return validation.GroundTruthRecord{}, fmt.Errorf("get ground truth for %s: %w", tag, err)
	}

	var gt validation.GroundTruthRecord
	if err := json.Unmarshal(entry.Value(), &gt); err != nil {
		return validation.GroundTruthRecord{}, fmt.Errorf("unmarshal ground truth for %s: %w", tag, err)
	}
	return gt, nil
}

// tagKey turns a building tag into a valid KV key. Tags are usually
// plain numbers but spreadsheets occasionally carry spaces or slashes.
func tagKey(tag string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, tag)
}

func isNotFound(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound)
}
