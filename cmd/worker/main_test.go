package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orangecat-platform/backend/internal/linkpreview"
	"github.com/orangecat-platform/backend/internal/repositories"
)

type fakePreviewStore struct {
	pending  []repositories.PendingPreview
	attached []uuid.UUID
	failed   []uuid.UUID
}

func (f *fakePreviewStore) ListPendingPreviews(_ context.Context, _ int) ([]repositories.PendingPreview, error) {
	return f.pending, nil
}

func (f *fakePreviewStore) AttachPreview(_ context.Context, eventID uuid.UUID, _, _ string, _ *string) error {
	f.attached = append(f.attached, eventID)
	return nil
}

func (f *fakePreviewStore) MarkPreviewFailed(_ context.Context, eventID uuid.UUID) error {
	f.failed = append(f.failed, eventID)
	return nil
}

type fakeFetcher struct {
	fail map[string]bool
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*linkpreview.Preview, error) {
	if f.fail[url] {
		return nil, fmt.Errorf("connection refused")
	}
	return &linkpreview.Preview{URL: url, Title: "a page"}, nil
}

func TestRunLinkPreviewsCountsFailures(t *testing.T) {
	okID := uuid.New()
	deadID := uuid.New()
	bareID := uuid.New()

	store := &fakePreviewStore{pending: []repositories.PendingPreview{
		{EventID: okID, Content: "see https://example.com/post"},
		{EventID: deadID, Content: "see https://dead.example.com/x"},
		{EventID: bareID, Content: "no link here"},
	}}
	fetcher := &fakeFetcher{fail: map[string]bool{"https://dead.example.com/x": true}}

	runLinkPreviews(context.Background(), store, fetcher, zap.NewNop())

	if len(store.attached) != 1 || store.attached[0] != okID {
		t.Errorf("attached = %v, want [%v]", store.attached, okID)
	}
	if len(store.failed) != 2 {
		t.Fatalf("failed = %v, want two entries", store.failed)
	}
	for _, id := range store.failed {
		if id != deadID && id != bareID {
			t.Errorf("unexpected failed id %v", id)
		}
	}
}
