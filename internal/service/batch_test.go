package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/google/uuid"
)

func batchItems(n int) []*model.Attendance {
	items := make([]*model.Attendance, n)
	for i := range items {
		items[i] = &model.Attendance{ID: uuid.New(), UrutanAbsensi: i + 1}
	}
	return items
}

func TestRunBatch_CollectsFailuresInOrder(t *testing.T) {
	items := batchItems(10)

	res := runBatch(context.Background(), "test", 3, items, func(_ context.Context, a *model.Attendance) error {
		if a.UrutanAbsensi%3 == 0 {
			return errors.New("boom")
		}
		return nil
	})

	if res.Total != 10 || res.Succeeded != 7 || len(res.Failed) != 3 {
		t.Fatalf("result = %+v", res)
	}
	for i, want := range []int{3, 6, 9} {
		if res.Failed[i].UrutanAbsensi != want || res.Failed[i].Reason != "boom" {
			t.Errorf("failed[%d] = %+v", i, res.Failed[i])
		}
	}
}

func TestRunBatch_RespectsLimit(t *testing.T) {
	var running, peak int32

	runBatch(context.Background(), "test", 2, batchItems(20), func(context.Context, *model.Attendance) error {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		atomic.AddInt32(&running, -1)
		return nil
	})

	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestRunBatch_EmptyHasNonNilFailures(t *testing.T) {
	res := runBatch(context.Background(), "test", 0, nil, func(context.Context, *model.Attendance) error { return nil })
	if res.Failed == nil || res.Total != 0 {
		t.Errorf("result = %+v", res)
	}
}
