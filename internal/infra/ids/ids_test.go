package ids

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/truwl/capanno-utils/internal/domain"
	"github.com/truwl/capanno-utils/internal/infra/index"
)

type countingMetrics struct {
	collisions map[domain.Kind]int
}

func (c *countingMetrics) ObserveCollision(kind domain.Kind) {
	if c.collisions == nil {
		c.collisions = map[domain.Kind]int{}
	}
	c.collisions[kind]++
}

func (c *countingMetrics) ObserveRecordLoaded(domain.RecordKind, error) {}
func (c *countingMetrics) ObserveMapBuild(domain.MapBuildMetric)        {}
func (c *countingMetrics) ObservePromotion(domain.Language, error)      {}

func newAllocator(t *testing.T) (*Allocator, index.Store, *countingMetrics) {
	t.Helper()
	store := index.NewFileIndex(filepath.Join(t.TempDir(), ".cache", "tools_index"), zap.NewNop())
	metrics := &countingMetrics{}
	return NewAllocator(store, domain.RepoConfig{}, metrics, zap.NewNop()), store, metrics
}

func knownSet(ids ...string) Known {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(id string) bool {
		_, ok := set[id]
		return ok
	}
}

func TestDerive_Deterministic(t *testing.T) {
	cases := []struct {
		kind    domain.Kind
		name    string
		version string
		want    string
	}{
		{domain.KindParentTool, "samtools", "1.x", "TL_ec2a8d.8b"},
		{domain.KindParentTool, "bwa", "0.7.17", "TL_a6be17.8e"},
		{domain.KindScript, "filter_bam", "1.0", "ST_a0678b.e4"},
		{domain.KindWorkflow, "wf-rnaseq", "1.0", "WF_ed5a10.e4"},
	}
	for _, tc := range cases {
		got, err := Derive(tc.kind, tc.name, tc.version, 0, nil)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)

		again, err := Derive(tc.kind, tc.name, tc.version, 0, knownSet())
		require.NoError(t, err)
		require.Equal(t, got, again)
	}
}

func TestDerive_SlidesPastCollision(t *testing.T) {
	got, err := Derive(domain.KindParentTool, "samtools", "1.x", 0, knownSet("TL_ec2a8d.8b"))
	require.NoError(t, err)
	require.Equal(t, "TL_ec2a8d.b0", got)
}

func TestDerive_WindowExhausted(t *testing.T) {
	always := func(string) bool { return true }
	_, err := Derive(domain.KindParentTool, "samtools", "1.x", 0, always)
	require.ErrorIs(t, err, domain.ErrWindowExhausted)

	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	require.Equal(t, domain.CodeFailedPrecond, code)
}

func TestDerive_LastWindowIsUsed(t *testing.T) {
	var taken []string
	for start := 0; start < 30; start++ {
		taken = append(taken, "TL_ec2a8d."+"8b0b6e1cb21d1e58737a8a164fbd4e84"[start:start+2])
	}
	got, err := Derive(domain.KindParentTool, "samtools", "1.x", 0, knownSet(taken...))
	require.NoError(t, err)
	require.Equal(t, "TL_ec2a8d.84", got)
}

func TestDerive_RespectsMaxShift(t *testing.T) {
	_, err := Derive(domain.KindParentTool, "samtools", "1.x", 1, knownSet("TL_ec2a8d.8b", "TL_ec2a8d.b0"))
	require.ErrorIs(t, err, domain.ErrWindowExhausted)
}

func TestDerive_RejectsBadInput(t *testing.T) {
	_, err := Derive(domain.KindSubtool, "samtools", "1.x", 0, nil)
	code, _ := domain.CodeFrom(err)
	require.Equal(t, domain.CodeInvalidArgument, code)

	var missing *domain.MissingFieldError
	_, err = Derive(domain.KindParentTool, "samtools", " ", 0, nil)
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "version", missing.Field)

	var malformed *domain.MalformedIdentifierError
	_, err = DeriveSubtool("TL_ec2a8d", "view", 0, nil)
	require.ErrorAs(t, err, &malformed)
}

func TestDeriveSubtool_KeepsParentParts(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		parent := "TL_" + rapid.StringMatching(`[0-9a-f]{6}`).Draw(t, "name") + "." + rapid.StringMatching(`[0-9a-f]{2}`).Draw(t, "version")
		subtool := rapid.StringMatching(`[a-z][a-z0-9_]{0,15}`).Draw(t, "subtool")

		id, err := DeriveSubtool(parent, subtool, 0, nil)
		if err != nil {
			t.Fatalf("derive subtool: %v", err)
		}
		if !strings.HasPrefix(id, parent[:9]+"_") || !strings.HasSuffix(id, parent[len(parent)-3:]) {
			t.Fatalf("subtool %s does not keep the parts of %s", id, parent)
		}
		if kind, err := domain.KindOf(id); err != nil || kind != domain.KindSubtool {
			t.Fatalf("subtool %s has kind %q: %v", id, kind, err)
		}
		if !domain.SubtoolBelongsTo(id, parent) {
			t.Fatalf("subtool %s not recognised under %s", id, parent)
		}
	})
}

func TestAllocator_SamtoolsScenario(t *testing.T) {
	ctx := context.Background()
	alloc, store, metrics := newAllocator(t)

	parent, err := alloc.Parent(ctx, domain.KindParentTool, "samtools", "1.x")
	require.NoError(t, err)
	require.Equal(t, "TL_ec2a8d.8b", parent)

	want := map[string]string{
		"view":  "TL_ec2a8d_1b.8b",
		"dict":  "TL_ec2a8d_bb.8b",
		"faidx": "TL_ec2a8d_b1.8b",
	}
	for _, sub := range []string{"view", "dict", "faidx"} {
		got, err := alloc.Subtool(ctx, parent, sub)
		require.NoError(t, err)
		require.Equal(t, want[sub], got, sub)
	}
	require.Equal(t, 1, metrics.collisions[domain.KindSubtool])

	again, err := alloc.Parent(ctx, domain.KindParentTool, "samtools", "1.x")
	require.NoError(t, err)
	require.Equal(t, "TL_ec2a8d.b0", again)

	ids, err := store.Identifiers(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"TL_ec2a8d.8b", "TL_ec2a8d_1b.8b", "TL_ec2a8d_bb.8b", "TL_ec2a8d_b1.8b", "TL_ec2a8d.b0"}, ids)
}

func TestAllocator_ClaimAndVerify(t *testing.T) {
	ctx := context.Background()
	alloc, _, _ := newAllocator(t)

	var notFound *domain.NotFoundError
	require.ErrorAs(t, alloc.Verify(ctx, "ST_a0678b.e4"), &notFound)

	require.NoError(t, alloc.Claim(ctx, "ST_a0678b.e4"))
	require.NoError(t, alloc.Verify(ctx, "ST_a0678b.e4"))

	err := alloc.Claim(ctx, "ST_a0678b.e4")
	var dup *domain.DuplicateIdentifierError
	require.ErrorAs(t, err, &dup)
	code, _ := domain.CodeFrom(err)
	require.Equal(t, domain.CodeAlreadyExists, code)

	var malformed *domain.MalformedIdentifierError
	require.ErrorAs(t, alloc.Claim(ctx, "ST_nope"), &malformed)
}

func TestAllocator_Instance(t *testing.T) {
	alloc, _, _ := newAllocator(t)
	alloc.newUUID = func() uuid.UUID {
		return uuid.MustParse("3f9ac2d1-0000-4000-8000-000000000000")
	}

	id, err := alloc.Instance("TL_ec2a8d_1b.8b")
	require.NoError(t, err)
	require.Equal(t, "TL_ec2a8d_1b.8b.3f9a", id)

	kind, err := domain.KindOf(id)
	require.NoError(t, err)
	require.Equal(t, domain.KindToolInstance, kind)

	id, err = alloc.Instance("WF_ed5a10.e4")
	require.NoError(t, err)
	require.Equal(t, "WF_ed5a10.e4.3f9a", id)

	_, err = alloc.Instance("TL_ec2a8d.8b")
	require.Error(t, err)
}
