package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/WessleyAI/courtside/engine/domain"
	"github.com/WessleyAI/courtside/engine/espn"
	"github.com/WessleyAI/courtside/pkg/fn"
	"github.com/WessleyAI/courtside/pkg/metrics"
)

// FileSource reads cached feed files one after another. Files maps a file
// name under Dir to its record extraction path; an empty path is derived
// from the content type implied by the file name.
type FileSource struct {
	Dir   string
	Files map[string]string
}

func (s FileSource) Collect(_ context.Context) ([]Batch, []*domain.SourceError) {
	names := make([]string, 0, len(s.Files))
	for name := range s.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		batches []Batch
		skipped []*domain.SourceError
	)
	for _, name := range names {
		origin := espn.OriginFromFilename(name)
		path := s.Files[name]
		if path == "" {
			path = espn.PathFor(origin.ContentType)
		}
		body, err := os.ReadFile(filepath.Join(s.Dir, name))
		if err != nil {
			skipped = append(skipped, &domain.SourceError{Source: name, Err: fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)})
			continue
		}
		recs, err := espn.ExtractRecords(body, path)
		if err != nil {
			skipped = append(skipped, &domain.SourceError{Source: name, Err: err})
			continue
		}
		batches = append(batches, Batch{Origin: origin, Records: recs})
	}
	return batches, skipped
}

// Fetcher downloads one live feed.
type Fetcher interface {
	Fetch(ctx context.Context, f espn.Feed) ([]byte, error)
}

// LiveSource fetches every feed concurrently and joins once all are done.
type LiveSource struct {
	Fetcher Fetcher
	Feeds   []espn.Feed
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

func (s LiveSource) Collect(ctx context.Context) ([]Batch, []*domain.SourceError) {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	tasks := make([]func(context.Context) fn.Result[Batch], len(s.Feeds))
	for i, f := range s.Feeds {
		tasks[i] = func(ctx context.Context) fn.Result[Batch] {
			return fn.FromPair(s.fetch(ctx, f, log))
		}
	}

	var (
		batches []Batch
		skipped []*domain.SourceError
	)
	for i, r := range fn.FanOut(ctx, tasks...) {
		b, err := r.Unwrap()
		if err != nil {
			var se *domain.SourceError
			if !errors.As(err, &se) {
				se = &domain.SourceError{Source: s.Feeds[i].Label(), Err: fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)}
			}
			skipped = append(skipped, se)
			continue
		}
		batches = append(batches, b)
	}
	return batches, skipped
}

// fetch downloads and extracts one feed. Every error it returns is a
// *domain.SourceError.
func (s LiveSource) fetch(ctx context.Context, f espn.Feed, log *zap.Logger) (Batch, error) {
	label := f.Label()
	origin, err := f.Origin()
	if err != nil {
		return Batch{}, &domain.SourceError{Source: label, Err: err}
	}
	start := time.Now()
	body, err := s.Fetcher.Fetch(ctx, f)
	if s.Metrics != nil {
		s.Metrics.ObserveFetch(label, time.Since(start))
	}
	if err != nil {
		var se *domain.SourceError
		if errors.As(err, &se) {
			return Batch{}, se
		}
		return Batch{}, &domain.SourceError{Source: label, Err: fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)}
	}
	recs, err := espn.ExtractRecords(body, espn.PathFor(origin.ContentType))
	if err != nil {
		return Batch{}, &domain.SourceError{Source: label, Err: err}
	}
	log.Debug("feed extracted", zap.String("source", label), zap.Int("records", len(recs)))
	return Batch{Origin: origin, Records: recs}, nil
}
