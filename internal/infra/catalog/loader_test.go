package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/truwl/capanno-utils/internal/domain"
)

type fakeVerifier map[string]struct{}

func (f fakeVerifier) Verify(_ context.Context, id string) error {
	if _, ok := f[id]; !ok {
		return &domain.NotFoundError{Identifier: id}
	}
	return nil
}

func newTestLoader() *Loader {
	return NewLoader(nil, nil, zap.NewNop())
}

func writeRecord(t *testing.T, path string, record any) {
	t.Helper()
	require.NoError(t, NewWriter(zap.NewNop()).Write(context.Background(), path, record))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimLeft(content, "\n")), 0o644))
}

func samtoolsParent(t *testing.T) *domain.ParentTool {
	t.Helper()
	parent, err := domain.NewParentTool(domain.ParentTool{
		Name:            "samtools",
		SoftwareVersion: domain.SoftwareVersion{VersionName: "1.x", IncludedVersions: []string{"1.9", "1.10"}},
		Identifier:      "TL_ec2a8d.8b",
		FeatureList:     []string{"view", "dict"},
		Description:     "Utilities for the Sequence Alignment/Map format.",
		CodeRepository:  domain.CodeRepository{Name: "GitHub", URL: "https://github.com/samtools/samtools"},
		Keywords:        []domain.Keyword{{URI: "http://edamontology.org/topic_0102"}},
		Creator:         []domain.Person{{Name: "Heng Li"}},
	})
	require.NoError(t, err)
	return parent
}

func TestWriteLoad_ParentToolRoundTrip(t *testing.T) {
	layout := NewLayout(domain.RepoConfig{Root: t.TempDir()})
	path := layout.ToolCommonMetadata("samtools", "1.x")
	want := samtoolsParent(t)
	writeRecord(t, path, want)

	got, err := newTestLoader().LoadParentTool(context.Background(), path, LoadOptions{})
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("parent round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteLoad_SubtoolInheritsAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	layout := NewLayout(domain.RepoConfig{Root: t.TempDir()})
	parent := samtoolsParent(t)
	writeRecord(t, layout.ToolCommonMetadata("samtools", "1.x"), parent)

	sub, err := domain.NewSubtool(domain.Subtool{Name: "view", Identifier: "TL_ec2a8d_1b.8b"})
	require.NoError(t, err)
	path := layout.SubtoolMetadata("samtools", "1.x", "view")
	writeRecord(t, path, sub)

	loader := newTestLoader()
	first, err := loader.LoadSubtool(ctx, path, LoadOptions{})
	require.NoError(t, err)
	require.Equal(t, parent.Description, first.Description)
	require.Equal(t, parent.Keywords, first.Keywords)
	require.True(t, first.Inherited.Has("description"))
	require.Equal(t, "samtools", first.ToolName())

	// Inherited values are not written back.
	writeRecord(t, path, first)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), parent.Description)

	second, err := loader.LoadSubtool(ctx, path, LoadOptions{})
	require.NoError(t, err)
	if diff := cmp.Diff(first, second, cmpopts.IgnoreFields(domain.Subtool{}, "Parent")); diff != "" {
		t.Fatalf("subtool round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSubtool_RejectsNameOutsideFeatureList(t *testing.T) {
	layout := NewLayout(domain.RepoConfig{Root: t.TempDir()})
	writeRecord(t, layout.ToolCommonMetadata("samtools", "1.x"), samtoolsParent(t))
	sub, err := domain.NewSubtool(domain.Subtool{Name: "sort"})
	require.NoError(t, err)
	path := layout.SubtoolMetadata("samtools", "1.x", "sort")
	writeRecord(t, path, sub)

	_, err = newTestLoader().LoadSubtool(context.Background(), path, LoadOptions{})
	var violation *domain.ConstraintViolationError
	require.ErrorAs(t, err, &violation)
	require.Equal(t, path, violation.Path)
	require.Equal(t, "name", violation.Field)
}

func TestLoadSubtool_MissingParent(t *testing.T) {
	layout := NewLayout(domain.RepoConfig{Root: t.TempDir()})
	sub, err := domain.NewSubtool(domain.Subtool{Name: "view"})
	require.NoError(t, err)
	path := layout.SubtoolMetadata("samtools", "1.x", "view")
	writeRecord(t, path, sub)

	_, err = newTestLoader().LoadSubtool(context.Background(), path, LoadOptions{})
	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	require.Equal(t, domain.CodeNotFound, code)

	loaded, err := newTestLoader().LoadSubtool(context.Background(), path, LoadOptions{SkipParent: true})
	require.NoError(t, err)
	require.False(t, loaded.Parent.Resolved())
}

func TestLoadSubtool_SharesCachedParent(t *testing.T) {
	ctx := context.Background()
	layout := NewLayout(domain.RepoConfig{Root: t.TempDir()})
	parentPath := layout.ToolCommonMetadata("samtools", "1.x")
	writeRecord(t, parentPath, samtoolsParent(t))
	for _, name := range []string{"view", "dict"} {
		sub, err := domain.NewSubtool(domain.Subtool{Name: name})
		require.NoError(t, err)
		writeRecord(t, layout.SubtoolMetadata("samtools", "1.x", name), sub)
	}

	loader := newTestLoader().WithCache(cache.New(cache.NoExpiration, 0))
	view, err := loader.LoadSubtool(ctx, layout.SubtoolMetadata("samtools", "1.x", "view"), LoadOptions{})
	require.NoError(t, err)
	require.NoError(t, os.Remove(parentPath))
	dict, err := loader.LoadSubtool(ctx, layout.SubtoolMetadata("samtools", "1.x", "dict"), LoadOptions{})
	require.NoError(t, err)

	viewParent, _ := view.Parent.Record()
	dictParent, _ := dict.Parent.Record()
	require.Same(t, viewParent, dictParent)
}

func TestWriteLoad_ScriptInheritsFromCommon(t *testing.T) {
	ctx := context.Background()
	layout := NewLayout(domain.RepoConfig{Root: t.TempDir()})

	common, err := domain.NewCommonScript(domain.CommonScript{
		SoftwareVersion: domain.SoftwareVersion{VersionName: "2.0"},
		Description:     "Shared helpers for the alignment project.",
		License:         "MIT",
		ContactPoint:    []domain.Person{{Name: "Ada", Email: "ada@example.org"}},
	})
	require.NoError(t, err)
	writeRecord(t, layout.CommonScriptMetadata("lab", "align", "2.0", "common"), common)

	raw := domain.ScriptDefaults()
	raw.Name = "filter_bam"
	raw.Identifier = "ST_a0678b.e4"
	raw.License = "Apache-2.0"
	raw.ParentMetadata = []string{"../common/common-metadata.yaml"}
	script, err := domain.NewScriptDraft(raw)
	require.NoError(t, err)
	path := layout.ScriptMetadata("lab", "align", "2.0", "filter_bam")
	writeRecord(t, path, script)

	loader := newTestLoader()
	first, err := loader.LoadScript(ctx, path, LoadOptions{})
	require.NoError(t, err)
	require.Equal(t, "2.0", first.SoftwareVersion.VersionName)
	require.Equal(t, common.Description, first.Description)
	require.Equal(t, "Apache-2.0", first.License)
	require.True(t, first.IsCallable)
	require.False(t, first.Inherited.Has("license"))

	writeRecord(t, path, first)
	second, err := loader.LoadScript(ctx, path, LoadOptions{})
	require.NoError(t, err)
	if diff := cmp.Diff(first, second, cmpopts.IgnoreFields(domain.Script{}, "Common")); diff != "" {
		t.Fatalf("script round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadScript_RequiresVersionAfterInheritance(t *testing.T) {
	layout := NewLayout(domain.RepoConfig{Root: t.TempDir()})
	path := layout.ScriptMetadata("lab", "align", "2.0", "lonely")
	writeFile(t, path, `
name: lonely
softwareVersion: null
`)
	_, err := newTestLoader().LoadScript(context.Background(), path, LoadOptions{})
	var missing *domain.MissingFieldError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "softwareVersion.versionName", missing.Field)
	require.Equal(t, path, missing.Path)
}

func TestWriteLoad_WorkflowAndInstanceRoundTrip(t *testing.T) {
	ctx := context.Background()
	layout := NewLayout(domain.RepoConfig{Root: t.TempDir()})
	loader := newTestLoader()

	workflow, err := domain.NewWorkflow(domain.Workflow{
		Name:            "wf-rnaseq",
		SoftwareVersion: domain.SoftwareVersion{VersionName: "1.0"},
		Identifier:      "WF_ed5a10.e4",
		WorkflowFile:    "rnaseq.cwl",
		CallMap:         []domain.CallMap{{ID: "align", Identifier: "TL_a6be17_8e.8e"}},
	})
	require.NoError(t, err)
	wfPath := layout.WorkflowMetadata("lab", "rnaseq", "1.0")
	writeRecord(t, wfPath, workflow)
	gotWorkflow, err := loader.LoadWorkflow(ctx, wfPath, LoadOptions{})
	require.NoError(t, err)
	if diff := cmp.Diff(workflow, gotWorkflow); diff != "" {
		t.Fatalf("workflow round trip mismatch (-want +got):\n%s", diff)
	}

	instance, err := domain.NewToolInstance(domain.ToolInstance{
		ToolName:       "samtools",
		ToolVersion:    "1.x",
		Name:           "view",
		ToolIdentifier: "TL_ec2a8d_1b.8b",
		Identifier:     "TL_ec2a8d_1b.8b.3f9a",
		InputObjects: []domain.IOItem{
			{ID: "input", IOObject: domain.IOObject{Path: "in.bam"}},
			{ID: "regions", Objects: []domain.IOObject{{Path: "a.bed"}, {URI: "https://example.org/b.bed"}}},
		},
	})
	require.NoError(t, err)
	instPath := layout.ToolInstanceMetadata("samtools", "1.x", "view", instance.InputHash())
	writeRecord(t, instPath, instance)
	gotInstance, err := loader.LoadToolInstance(ctx, instPath, LoadOptions{})
	require.NoError(t, err)
	if diff := cmp.Diff(instance, gotInstance); diff != "" {
		t.Fatalf("instance round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_UnknownFieldNamesPathAndField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools", "bwa", "0.7.17", "common", "common-metadata.yaml")
	writeFile(t, path, `
name: bwa
softwareVersion: 0.7.17
maintainer: someone
`)
	_, err := newTestLoader().LoadParentTool(context.Background(), path, LoadOptions{})
	var unknown *domain.UnknownFieldError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, path, unknown.Path)
	require.Equal(t, "maintainer", unknown.Field)

	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	require.Equal(t, domain.CodeInvalidArgument, code)
}

func TestLoad_SchemaViolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "common-metadata.yaml")
	writeFile(t, path, `
name: bwa
softwareVersion: 0.7.17
identifier: TL_XYZ.00
metadataStatus: Finished
`)
	_, err := newTestLoader().LoadParentTool(context.Background(), path, LoadOptions{})
	var violation *domain.ConstraintViolationError
	require.ErrorAs(t, err, &violation)
	require.Equal(t, "document", violation.Field)
}

func TestLoad_TopLevelMustBeMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "common-metadata.yaml")
	writeFile(t, path, "- just\n- a list\n")
	_, err := newTestLoader().LoadParentTool(context.Background(), path, LoadOptions{})
	var violation *domain.ConstraintViolationError
	require.ErrorAs(t, err, &violation)
}

func TestLoad_VerifyIndex(t *testing.T) {
	ctx := context.Background()
	layout := NewLayout(domain.RepoConfig{Root: t.TempDir()})
	path := layout.ToolCommonMetadata("samtools", "1.x")
	writeRecord(t, path, samtoolsParent(t))

	loader := NewLoader(fakeVerifier{}, nil, zap.NewNop())
	_, err := loader.LoadParentTool(ctx, path, LoadOptions{VerifyIndex: true})
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, path, notFound.Path)

	loader = NewLoader(fakeVerifier{"TL_ec2a8d.8b": {}}, nil, zap.NewNop())
	_, err = loader.LoadParentTool(ctx, path, LoadOptions{VerifyIndex: true})
	require.NoError(t, err)
}

func TestEncode_WritesEveryFieldInOrderWithPlaceholders(t *testing.T) {
	parent, err := domain.NewParentTool(domain.ParentTool{
		Name:            "bwa",
		SoftwareVersion: domain.SoftwareVersion{VersionName: "0.7.17"},
	})
	require.NoError(t, err)

	data, err := Encode(parent)
	require.NoError(t, err)

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal(data, &doc))
	root := doc.Content[0]
	var keys []string
	values := map[string]*yaml.Node{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		keys = append(keys, root.Content[i].Value)
		values[root.Content[i].Value] = root.Content[i+1]
	}
	if diff := cmp.Diff(domain.ParentToolFields, keys); diff != "" {
		t.Fatalf("key order mismatch (-want +got):\n%s", diff)
	}

	require.Equal(t, "!!null", values["description"].Tag)
	require.Equal(t, yaml.MappingNode, values["codeRepository"].Kind)
	require.Equal(t, "name", values["codeRepository"].Content[0].Value)

	for _, field := range []string{"publication", "contactPoint", "creator", "WebSite", "keywords"} {
		require.Equal(t, yaml.SequenceNode, values[field].Kind, field)
	}

	var keywords []map[string]any
	require.NoError(t, values["keywords"].Decode(&keywords))
	require.Equal(t, []map[string]any{{"name": nil, "category": nil}}, keywords)

	var publication []map[string]any
	require.NoError(t, values["publication"].Decode(&publication))
	require.Equal(t, []map[string]any{{"identifier": nil}}, publication)
}

func TestDetectKind(t *testing.T) {
	cases := []struct {
		rel  string
		want domain.RecordKind
	}{
		{"tools/samtools/1.x/common/common-metadata.yaml", domain.RecordParentTool},
		{"tools/samtools/1.x/samtools_view/samtools-view-metadata.yaml", domain.RecordSubtool},
		{"tools/samtools/1.x/samtools/samtools-metadata.yaml", domain.RecordSubtool},
		{"tools/samtools/1.x/samtools_view/instances/3f9a-metadata.yaml", domain.RecordToolInstance},
		{"scripts/lab/align/2.0/common/common-metadata.yaml", domain.RecordCommonScript},
		{"scripts/lab/align/2.0/filter_bam/filter_bam-metadata.yaml", domain.RecordScript},
		{"workflows/lab/rnaseq/1.0/rnaseq-metadata.yaml", domain.RecordWorkflow},
	}
	for _, tc := range cases {
		got, err := DetectKind(tc.rel)
		require.NoError(t, err, tc.rel)
		require.Equal(t, tc.want, got, tc.rel)
	}

	for _, rel := range []string{
		"tools/samtools/1.x/samtools_view/samtools-view.cwl",
		"README.md",
		"workflows/lab/rnaseq-metadata.yaml",
	} {
		_, err := DetectKind(rel)
		require.Error(t, err, rel)
	}
}
