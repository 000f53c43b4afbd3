package service

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/ahmadqo/e-sertifikat/internal/model"
	"golang.org/x/sync/errgroup"
)

// runBatch menjalankan fn untuk setiap peserta dengan paralelisme terbatas.
// Error per peserta dicatat di hasil, tidak pernah menghentikan batch.
// Setelah ctx dibatalkan peserta yang belum dimulai dihitung sebagai skipped.
func runBatch(ctx context.Context, op string, limit int, items []*model.Attendance, fn func(context.Context, *model.Attendance) error) *model.BatchResult {
	result := &model.BatchResult{Total: len(items), Failed: []model.BatchFailure{}}
	if limit <= 0 {
		limit = 1
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(limit)

	for _, att := range items {
		if ctx.Err() != nil {
			mu.Lock()
			result.Skipped++
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				mu.Lock()
				result.Skipped++
				mu.Unlock()
				return nil
			}

			err := fn(ctx, att)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("%s failed: attendance=%s seq=%d: %v", op, att.ID, att.UrutanAbsensi, err)
				result.Failed = append(result.Failed, model.BatchFailure{
					AttendanceID:  att.ID,
					UrutanAbsensi: att.UrutanAbsensi,
					Reason:        err.Error(),
				})
				return nil
			}
			result.Succeeded++
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(result.Failed, func(i, j int) bool {
		return result.Failed[i].UrutanAbsensi < result.Failed[j].UrutanAbsensi
	})
	log.Printf("%s finished: total=%d succeeded=%d failed=%d skipped=%d",
		op, result.Total, result.Succeeded, len(result.Failed), result.Skipped)
	return result
}
