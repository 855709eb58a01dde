package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestContentMap_InsertUnique(t *testing.T) {
	m := NewContentMap()
	require.NoError(t, m.InsertUnique("TL_ec2a8d.8b", Entry{Type: EntryParent, MetadataPath: "tools/samtools/1.x/common/common-metadata.yaml"}))

	err := m.InsertUnique("TL_ec2a8d.8b", Entry{Type: EntryParent, MetadataPath: "tools/other/1.x/common/common-metadata.yaml"})
	var dup *DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "tools/samtools/1.x/common/common-metadata.yaml", dup.Existing)
	require.Equal(t, "tools/other/1.x/common/common-metadata.yaml", dup.Incoming)
	require.Equal(t, 1, m.Len())
}

func TestContentMap_MergeIsAllOrNothing(t *testing.T) {
	left := NewContentMap()
	require.NoError(t, left.InsertUnique("TL_aaaaaa.00", Entry{Path: "a"}))

	right := NewContentMap()
	require.NoError(t, right.InsertUnique("TL_bbbbbb.00", Entry{Path: "b"}))
	require.NoError(t, right.InsertUnique("TL_aaaaaa.00", Entry{Path: "c"}))

	err := left.Merge(right)
	var dup *DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, 1, left.Len())
	_, ok := left.Get("TL_bbbbbb.00")
	require.False(t, ok)
}

func TestContentMap_MergeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keys := rapid.SliceOfNDistinct(rapid.IntRange(0, 0xffffff), 2, 40, rapid.ID[int]).Draw(t, "keys")
		split := rapid.IntRange(1, len(keys)-1).Draw(t, "split")
		overlap := rapid.Bool().Draw(t, "overlap")

		left := NewContentMap()
		for _, k := range keys[:split] {
			if err := left.InsertUnique(fmt.Sprintf("TL_%06x.00", k), Entry{Path: "left"}); err != nil {
				t.Fatalf("insert: %v", err)
			}
		}
		right := NewContentMap()
		for _, k := range keys[split:] {
			if err := right.InsertUnique(fmt.Sprintf("TL_%06x.00", k), Entry{Path: "right"}); err != nil {
				t.Fatalf("insert: %v", err)
			}
		}
		if overlap {
			if err := right.InsertUnique(fmt.Sprintf("TL_%06x.00", keys[0]), Entry{Path: "right"}); err != nil {
				t.Fatalf("insert: %v", err)
			}
		}

		err := left.Merge(right)
		if overlap {
			var dup *DuplicateKeyError
			if err == nil || !asDuplicateKey(err, &dup) {
				t.Fatalf("expected duplicate key error, got %v", err)
			}
			if left.Len() != split {
				t.Fatalf("left changed after failed merge: %d", left.Len())
			}
			return
		}
		if err != nil {
			t.Fatalf("disjoint merge failed: %v", err)
		}
		if left.Len() != len(keys) {
			t.Fatalf("merged len = %d, want %d", left.Len(), len(keys))
		}
	})
}

func asDuplicateKey(err error, target **DuplicateKeyError) bool {
	dup, ok := err.(*DuplicateKeyError)
	if ok {
		*target = dup
	}
	return ok
}

func TestEntryFields(t *testing.T) {
	entry := Entry{
		Type:           EntrySubtool,
		MetadataPath:   "tools/samtools/1.x/samtools_view/samtools-view-metadata.yaml",
		Name:           "view",
		MetadataStatus: StatusDraft,
		Exists:         &SourceExists{CWL: true},
	}
	entry.SetLanguageStatuses(LanguageStatuses{CWL: StatusDraft, WDL: StatusIncomplete, Snakemake: StatusIncomplete, Nextflow: StatusIncomplete})

	fields := entry.Fields()
	require.Equal(t, "subtool", fields["type"])
	require.Equal(t, "Draft", fields["cwlStatus"])
	require.Equal(t, true, fields["cwlExists"])
	require.Equal(t, false, fields["wdlExists"])
	require.NotContains(t, fields, "workflowPath")
}
