package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	awspkg "github.com/yashrajoria/laptop-admin/backend/pkg/aws"
	"github.com/yashrajoria/laptop-admin/backend/pkg/storage"
	"go.uber.org/zap"
)

// referenceSource yields the image URLs stored in one document field.
type referenceSource interface {
	Distinct(ctx context.Context, field string) ([]string, error)
}

// imageField names a field holding image URLs, single or array.
type imageField struct {
	name   string
	source referenceSource
	field  string
}

// Report summarises one sweep.
type Report struct {
	Referenced int
	Scanned    int
	Kept       int
	TooYoung   int
	Orphans    []string
	Deleted    int
	Failed     int
}

// errDryRun leaves queue messages in place during a dry run.
var errDryRun = errors.New("dry run")

// Sweeper removes blobs no document references.
type Sweeper struct {
	store  storage.BlobStore
	fields []imageField
	grace  time.Duration
	dryRun bool
	now    func() time.Time

	// referenced is loaded once per queue drain.
	referenced map[string]bool
}

func NewSweeper(store storage.BlobStore, fields []imageField, grace time.Duration, dryRun bool) *Sweeper {
	return &Sweeper{store: store, fields: fields, grace: grace, dryRun: dryRun, now: time.Now}
}

// referencedKeys collects the storage keys of every referenced image. URLs
// from other hosts (Google avatars, pasted links) are skipped.
func (s *Sweeper) referencedKeys(ctx context.Context) (map[string]bool, error) {
	keys := map[string]bool{}
	for _, f := range s.fields {
		urls, err := f.source.Distinct(ctx, f.field)
		if err != nil {
			return nil, fmt.Errorf("read %s.%s: %w", f.name, f.field, err)
		}
		for _, u := range urls {
			ref, err := s.store.Ref(u)
			if err != nil {
				continue
			}
			keys[ref.Key] = true
		}
	}
	return keys, nil
}

// Run lists every object under prefixes and deletes the unreferenced ones
// older than the grace period. Any failure to read references aborts before
// anything is deleted.
func (s *Sweeper) Run(ctx context.Context, prefixes []string) (*Report, error) {
	referenced, err := s.referencedKeys(ctx)
	if err != nil {
		return nil, err
	}
	report := &Report{Referenced: len(referenced)}
	cutoff := s.now().Add(-s.grace)

	for _, prefix := range prefixes {
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		err := s.store.List(ctx, prefix, func(obj storage.ObjectInfo) error {
			report.Scanned++
			switch {
			case referenced[obj.Key]:
				report.Kept++
			case obj.LastModified.After(cutoff):
				report.TooYoung++
			default:
				report.Orphans = append(report.Orphans, obj.Key)
			}
			return nil
		})
		if err != nil {
			return report, fmt.Errorf("list %q: %w", prefix, err)
		}
	}

	if s.dryRun {
		return report, nil
	}
	for _, key := range report.Orphans {
		ref := storage.BlobRef{Bucket: s.store.Bucket(), Key: key}
		if err := s.store.Delete(ctx, ref); err != nil {
			report.Failed++
			zap.L().Warn("Failed to delete orphaned image", zap.String("key", key), zap.Error(err))
			continue
		}
		report.Deleted++
	}
	return report, nil
}

type orphanEvent struct {
	EventType string `json:"event_type"`
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
}

// HandleOrphanEvent retries the deletion named by an image.orphaned event.
// Events for other buckets or types are acknowledged and ignored, and a key
// that is referenced again is kept.
func (s *Sweeper) HandleOrphanEvent(ctx context.Context, body string) error {
	var ev orphanEvent
	if err := json.Unmarshal([]byte(awspkg.UnwrapSNS(body)), &ev); err != nil {
		zap.L().Warn("Skipping unreadable event", zap.Error(err))
		return nil
	}
	if ev.EventType != storage.EventImageOrphaned || ev.Key == "" || ev.Bucket != s.store.Bucket() {
		return nil
	}

	if s.referenced == nil {
		refs, err := s.referencedKeys(ctx)
		if err != nil {
			return err
		}
		s.referenced = refs
	}
	if s.referenced[ev.Key] {
		zap.L().Info("Orphan event for a referenced image, keeping it", zap.String("key", ev.Key))
		return nil
	}
	if s.dryRun {
		zap.L().Info("Would delete orphaned image", zap.String("key", ev.Key))
		return errDryRun
	}
	if err := s.store.Delete(ctx, storage.BlobRef{Bucket: ev.Bucket, Key: ev.Key}); err != nil {
		return fmt.Errorf("delete %s: %w", ev.Key, err)
	}
	zap.L().Info("Deleted orphaned image", zap.String("key", ev.Key))
	return nil
}
