package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ArxivDigest/internal/extract"
)

// Extract runs the section extractor over every stored document with a
// conversion artifact, honoring the idempotency cache and the merge/persist
// contract: only non-nil fields are written, and an all-nil result flags the
// document as failed-for-this-pass without escalating.
func (s *Steps) Extract(ctx context.Context) error {
	cachePath := filepath.Join(s.conversionDir, "sections.json")
	cache, err := extract.LoadCache(cachePath)
	if err != nil {
		return fmt.Errorf("load extraction cache: %w", err)
	}
	s.logger.Info("loaded extraction cache", "entries", cache.LoadedLen())

	ids, err := s.store.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("load document ids: %w", err)
	}
	if len(ids) == 0 {
		s.logger.Info("no documents to extract")
		return nil
	}

	var succeeded, failed, skipped int
	for _, id := range ids {
		if cache.Has(id) {
			s.logger.Debug("skipping, already processed", "id", id)
			skipped++
			continue
		}

		artifact := filepath.Join(s.conversionDir, id+".json")
		if _, err := os.Stat(artifact); os.IsNotExist(err) {
			s.logger.Warn("conversion artifact not found", "id", id)
			failed++
			continue
		}

		content, err := extract.ReconstructFile(artifact)
		if err != nil {
			s.logger.Warn("cannot reconstruct document text", "id", id, "error", err)
			failed++
			continue
		}

		result := s.extractor.Extract(id, content)
		cache.Put(id, result)

		if result.Empty() {
			s.logger.Warn("no sections extracted", "id", id)
			failed++
			continue
		}

		if err := s.store.UpdateSections(ctx, id, result.Abstract, result.Conclusion); err != nil {
			s.logger.Error("update sections", "id", id, "error", err)
			failed++
			continue
		}
		s.verifySections(ctx, id, result.Abstract, result.Conclusion)
		succeeded++
	}

	if err := cache.Save(); err != nil {
		return fmt.Errorf("save extraction cache: %w", err)
	}

	s.logger.Info("extraction summary",
		"total", len(ids),
		"succeeded", succeeded,
		"failed", failed,
		"skipped", skipped,
		"cached", cache.Len(),
	)
	return nil
}

// verifySections re-reads the fields just written and compares them with
// what was sent. A mismatch is logged as a warning, never escalated.
func (s *Steps) verifySections(ctx context.Context, id string, abstract, conclusion *string) {
	gotAbstract, gotConclusion, err := s.store.GetSections(ctx, id)
	if err != nil {
		s.logger.Warn("cannot verify written sections", "id", id, "error", err)
		return
	}

	if abstract != nil && (gotAbstract == nil || *gotAbstract != *abstract) {
		s.logger.Warn("abstract readback mismatch", "id", id)
	}
	if conclusion != nil && (gotConclusion == nil || *gotConclusion != *conclusion) {
		s.logger.Warn("conclusion readback mismatch", "id", id)
	}
}
