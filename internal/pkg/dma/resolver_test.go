package dma

import (
	"context"
	"testing"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/internal/pkg/zipcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_CreateAndReuse(t *testing.T) {
	regions := newFakeRegions()
	r := NewResolver(regions)
	issues := NewImportIssues(SourceCSV, "")
	ctx := context.Background()

	id, err := r.Resolve(ctx, 523, "BURLINGTON-PLATTSBURGH", 2, false, issues)
	require.NoError(t, err)
	again, err := r.Resolve(ctx, 523, "BURLINGTON-PLATTSBURGH", 9, false, issues)
	require.NoError(t, err)

	assert.Equal(t, id, again)
	assert.Equal(t, 1, regions.creates)
	assert.Zero(t, regions.updates)
	assert.Empty(t, issues.NameConflicts)

	region, err := regions.GetByCode(ctx, 523)
	require.NoError(t, err)
	assert.Equal(t, "burlington-plattsburgh", region.Slug)
}

func TestResolver_SlugCollisionGetsCodeSuffix(t *testing.T) {
	regions := newFakeRegions()
	require.NoError(t, regions.Create(context.Background(), &models.Region{Code: 1, Name: "Springfield", Slug: "springfield"}))

	issues := NewImportIssues(SourceCSV, "")
	id, err := NewResolver(regions).Resolve(context.Background(), 543, "Springfield", 4, false, issues)
	require.NoError(t, err)

	region := regions.byID[id]
	assert.Equal(t, "springfield-543", region.Slug)
	assert.Equal(t, 1, issues.RegionsCreated)
}

func TestResolver_RenameCollisionGetsCodeSuffix(t *testing.T) {
	regions := newFakeRegions()
	ctx := context.Background()
	require.NoError(t, regions.Create(ctx, &models.Region{Code: 1, Name: "Springfield", Slug: "springfield"}))
	require.NoError(t, regions.Create(ctx, &models.Region{Code: 543, Name: "Springfield-Holyoke", Slug: "springfield-holyoke"}))

	issues := NewImportIssues(SourceCSV, "")
	id, err := NewResolver(regions).Resolve(ctx, 543, "Springfield", 7, false, issues)
	require.NoError(t, err)

	assert.Equal(t, "springfield-543", regions.byID[id].Slug)
	assert.Equal(t, "Springfield", regions.byID[id].Name)
	require.Len(t, issues.NameConflicts, 1)
	assert.Equal(t, ConflictStored, issues.NameConflicts[0].Against)
}

func TestResolver_SecondCollisionFails(t *testing.T) {
	regions := newFakeRegions()
	ctx := context.Background()
	require.NoError(t, regions.Create(ctx, &models.Region{Code: 1, Name: "Springfield", Slug: "springfield"}))
	require.NoError(t, regions.Create(ctx, &models.Region{Code: 2, Name: "Springfield 543", Slug: "springfield-543"}))

	_, err := NewResolver(regions).Resolve(ctx, 543, "Springfield", 4, false, NewImportIssues(SourceCSV, ""))
	assert.Error(t, err)
}

func TestResolver_RejectsBadCode(t *testing.T) {
	_, err := NewResolver(newFakeRegions()).Resolve(context.Background(), 0, "Nowhere", 1, false, NewImportIssues(SourceCSV, ""))
	assert.Error(t, err)
}

func TestMapper_AssignAndUnassign(t *testing.T) {
	s := newStore()
	m := NewMapper(s.zips, s.mappings)
	ctx := context.Background()

	regionA := &models.Region{Code: 100, Name: "Alpha", Slug: "alpha"}
	regionB := &models.Region{Code: 200, Name: "Beta", Slug: "beta"}
	require.NoError(t, s.regions.Create(ctx, regionA))
	require.NoError(t, s.regions.Create(ctx, regionB))

	zc, err := m.Assign(ctx, "12345-6789", regionA.ID)
	require.NoError(t, err)
	assert.Equal(t, "12345", zc.Value)

	_, err = m.Assign(ctx, "12345", regionB.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{200}, s.mappings.regionCodesFor("12345"))

	removed, err := m.Unassign(ctx, "12345")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, s.mappings.regionCodesFor("12345"))

	removed, err = m.Unassign(ctx, "99999")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMapper_AssignRejectsSentinel(t *testing.T) {
	s := newStore()
	m := NewMapper(s.zips, s.mappings)

	_, err := m.Assign(context.Background(), "n/a", 1)
	assert.ErrorIs(t, err, zipcode.ErrInvalidZip)
	_, err = m.Unassign(context.Background(), "")
	assert.ErrorIs(t, err, zipcode.ErrInvalidZip)
	assert.Empty(t, s.zips.rows)
}

func TestMapper_ApplyPagesThroughExistingRows(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	region := &models.Region{Code: 501, Name: "New York", Slug: "new-york"}
	require.NoError(t, s.regions.Create(ctx, region))
	s.zips.seed("10001", "10002", "10003", "10004", "10005")

	m := NewMapper(s.zips, s.mappings)
	m.pageSize = 2
	m.createBatchSize = 2

	plan := BuildPlan([]Row{
		{Line: 1, Zip: "10001", RegionCode: 501, RegionName: "New York"},
		{Line: 2, Zip: "10005", RegionCode: 501, RegionName: "New York"},
		{Line: 3, Zip: "10006", RegionCode: 501, RegionName: "New York"},
		{Line: 4, Zip: "10007", RegionCode: 501, RegionName: "New York"},
		{Line: 5, Zip: "10008", RegionCode: 501, RegionName: "New York"},
	})
	issues := NewImportIssues(SourceCSV, "")
	require.NoError(t, m.Apply(ctx, plan, map[int]uint{501: region.ID}, issues))

	assert.Equal(t, []string{"10006", "10007", "10008"}, issues.NewZipCodes)
	assert.Equal(t, 5, issues.MappingsWritten)
	assert.Len(t, s.zips.rows, 8)

	issues = NewImportIssues(SourceCSV, "")
	require.NoError(t, m.Apply(ctx, plan, map[int]uint{501: region.ID}, issues))
	assert.Equal(t, 5, issues.MappingsUnchanged)
	assert.Zero(t, issues.MappingsWritten)
}
