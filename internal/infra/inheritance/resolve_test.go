package inheritance

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/truwl/capanno-utils/internal/domain"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"string", "samtools", false},
		{"false", false, false},
		{"zero int", 0, true},
		{"nil slice", []string(nil), true},
		{"slice of empty strings", []string{"", ""}, true},
		{"slice with value", []string{"", "x"}, false},
		{"placeholder keyword", []domain.Keyword{{}}, true},
		{"keyword", []domain.Keyword{{Name: "Sequence analysis", Category: domain.KeywordTopic}}, false},
		{"empty struct", domain.CodeRepository{}, true},
		{"struct", domain.CodeRepository{Name: "GitHub"}, false},
		{"nil pointer", (*domain.ParentTool)(nil), true},
		{"empty map", map[string]any{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsEmpty(tc.value))
		})
	}
}

func TestFold_EarlierWins(t *testing.T) {
	require.Equal(t, "first", Fold("", "first", "second"))
	require.Equal(t, "", Fold[string]())
	require.Equal(t,
		domain.CodeRepository{Name: "b"},
		Fold(domain.CodeRepository{}, domain.CodeRepository{Name: "b"}, domain.CodeRepository{Name: "c"}),
	)
}

func TestResolve_FillsOnlyEmpty(t *testing.T) {
	parent := &domain.ParentTool{
		Name:        "samtools",
		Description: "Tools for alignments in the SAM format",
		Keywords:    []domain.Keyword{{URI: "http://edamontology.org/topic_0102"}},
	}
	child := &domain.Subtool{Name: "view", Description: "Views alignments"}

	filled, err := Resolve(child, parent, domain.SubtoolInheritedFields)
	require.NoError(t, err)
	require.Equal(t, []string{"keywords"}, filled)
	require.Equal(t, "Views alignments", child.Description)
	require.Equal(t, parent.Keywords, child.Keywords)

	child.Keywords[0].URI = "changed"
	require.Equal(t, "http://edamontology.org/topic_0102", parent.Keywords[0].URI)
}

func TestResolve_InlineFields(t *testing.T) {
	child := &domain.Subtool{}
	ancestor := domain.Subtool{LanguageStatuses: domain.LanguageStatuses{CWL: domain.StatusReleased}}

	filled, err := Resolve(child, ancestor, []string{"cwlStatus"})
	require.NoError(t, err)
	require.Equal(t, []string{"cwlStatus"}, filled)
	require.Equal(t, domain.StatusReleased, child.CWL)
}

func TestResolve_Errors(t *testing.T) {
	_, err := Resolve(domain.Subtool{}, &domain.ParentTool{}, nil)
	require.Error(t, err)

	_, err = Resolve(&domain.Subtool{}, (*domain.ParentTool)(nil), nil)
	require.ErrorIs(t, err, domain.ErrParentMissing)

	_, err = Resolve(&domain.Subtool{}, &domain.ParentTool{}, []string{"noSuchField"})
	require.Error(t, err)
}

func TestApplySubtool_Idempotent(t *testing.T) {
	parent := &domain.ParentTool{
		Name:        "samtools",
		FeatureList: []string{"view"},
		Description: "Tools for alignments in the SAM format",
	}
	sub := &domain.Subtool{Name: "view"}
	require.NoError(t, sub.AttachParent(parent))

	filled, err := ApplySubtool(sub)
	require.NoError(t, err)
	require.Equal(t, []string{"description"}, filled)
	require.True(t, sub.Inherited.Has("description"))

	snapshot := *sub
	filled, err = ApplySubtool(sub)
	require.NoError(t, err)
	require.Empty(t, filled)

	opts := cmp.Options{cmpopts.IgnoreFields(domain.Subtool{}, "Parent")}
	if diff := cmp.Diff(snapshot, *sub, opts); diff != "" {
		t.Fatalf("second application changed the subtool (-want +got):\n%s", diff)
	}
}

func TestApplySubtool_Unresolved(t *testing.T) {
	_, err := ApplySubtool(&domain.Subtool{Name: "view"})
	require.ErrorIs(t, err, domain.ErrParentMissing)
}

func TestApplyScript_FirstCommonWins(t *testing.T) {
	first := &domain.CommonScript{License: "MIT"}
	second := &domain.CommonScript{
		License:     "GPL-3.0",
		Description: "Shared BAM helpers",
		Creator:     []domain.Person{{Name: "Jane Doe"}},
	}
	script := &domain.Script{
		Name: "filter_bam",
		Common: []domain.ParentRef[*domain.CommonScript]{
			domain.ResolvedParent("../common/a-metadata.yaml", first),
			domain.ResolvedParent("../common/b-metadata.yaml", second),
		},
	}

	filled, err := ApplyScript(script)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"license", "description", "creator"}, filled)
	require.Equal(t, "MIT", script.License)
	require.Equal(t, "Shared BAM helpers", script.Description)
	require.True(t, script.Inherited.Has("creator"))

	filled, err = ApplyScript(script)
	require.NoError(t, err)
	require.Empty(t, filled)
}

func TestApplyScript_UnresolvedCommon(t *testing.T) {
	script := &domain.Script{
		Common: []domain.ParentRef[*domain.CommonScript]{domain.UnresolvedParent[*domain.CommonScript]("../common/a-metadata.yaml")},
	}
	_, err := ApplyScript(script)
	require.ErrorIs(t, err, domain.ErrParentMissing)
}
