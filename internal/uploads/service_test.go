package uploads

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/internal/platform/httpx"
	_ "github.com/tallybook/tallybook/testing"
)

type memoryRepo struct {
	records   []Record
	lastLimit int
	nextID    int64
}

func (r *memoryRepo) List(ctx context.Context, limit int) ([]Record, error) {
	r.lastLimit = limit
	return r.records, nil
}

func (r *memoryRepo) Create(ctx context.Context, input Input) (Record, error) {
	r.nextID++
	rec := Record{
		ID: r.nextID, Filename: input.Filename, Kind: input.Kind, Size: input.Size,
		RowCount: input.RowCount, UploadedBy: input.UploadedBy, Note: input.Note,
	}
	r.records = append(r.records, rec)
	return rec, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	for i, rec := range r.records {
		if rec.ID == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return httpx.ErrNotFound
}

func TestRecordNormalizes(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)

	rec, err := svc.Record(context.Background(), Input{
		Filename: "  q3-sales.csv ", Kind: "Sales", Size: 2048, RowCount: 120,
	})
	require.NoError(t, err)
	require.Equal(t, "q3-sales.csv", rec.Filename)
	require.Equal(t, "sales", rec.Kind)
}

func TestRecordValidation(t *testing.T) {
	svc := NewService(&memoryRepo{})
	ctx := context.Background()

	_, err := svc.Record(ctx, Input{Filename: " ", Kind: "sales"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Record(ctx, Input{Filename: "a.csv", Kind: ""})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Record(ctx, Input{Filename: "a.csv", Kind: "sales", Size: -1})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestListClampsLimit(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)

	_, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, defaultListLimit, repo.lastLimit)

	_, err = svc.List(context.Background(), 9000)
	require.NoError(t, err)
	require.Equal(t, defaultListLimit, repo.lastLimit)

	_, err = svc.List(context.Background(), 25)
	require.NoError(t, err)
	require.Equal(t, 25, repo.lastLimit)
}

func TestDeleteMissing(t *testing.T) {
	svc := NewService(&memoryRepo{})
	require.ErrorIs(t, svc.Delete(context.Background(), 404), httpx.ErrNotFound)
}
