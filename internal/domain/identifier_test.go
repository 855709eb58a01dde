package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		id   string
		kind Kind
	}{
		{"TL_ec2a8d.8b", KindParentTool},
		{"TL_ec2a8d_1b.8b", KindSubtool},
		{"TL_ec2a8d_1b.8b.a1b2", KindToolInstance},
		{"ST_a0678b.e4", KindScript},
		{"ST_a0678b.e4.0f0f", KindScriptInstance},
		{"WF_ed5a10.e4", KindWorkflow},
		{"WF_ed5a10.e4.1234", KindWorkflowInstance},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			kind, err := KindOf(tt.id)
			require.NoError(t, err)
			require.Equal(t, tt.kind, kind)
			require.NoError(t, ValidateIdentifier(tt.kind, tt.id))
		})
	}
}

func TestKindOf_Malformed(t *testing.T) {
	for _, id := range []string{"", "TL_EC2A8D.8B", "TL_ec2a8d8b", "XX_ec2a8d.8b", "TL_ec2a8d.8b.", "TL_ec2a8d_1b.8b.zzzz"} {
		_, err := KindOf(id)
		var malformed *MalformedIdentifierError
		require.True(t, errors.As(err, &malformed), "id %q", id)
		require.Equal(t, id, malformed.Identifier)
	}
}

func TestValidateIdentifier_WrongKind(t *testing.T) {
	err := ValidateIdentifier(KindSubtool, "TL_ec2a8d.8b")
	var malformed *MalformedIdentifierError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, KindSubtool, malformed.Kind)
}

func TestContentTypeOf(t *testing.T) {
	got, err := ContentTypeOf("ST_a0678b.e4")
	require.NoError(t, err)
	require.Equal(t, ContentScript, got)

	got, err = ContentTypeOf("WF_ed5a10.e4")
	require.NoError(t, err)
	require.Equal(t, ContentWorkflow, got)

	_, err = ContentTypeOf("nope")
	require.Error(t, err)
}

func TestSubtoolBelongsTo(t *testing.T) {
	require.True(t, SubtoolBelongsTo("TL_ec2a8d_1b.8b", "TL_ec2a8d.8b"))
	require.False(t, SubtoolBelongsTo("TL_ec2a8d_1b.8c", "TL_ec2a8d.8b"))
	require.False(t, SubtoolBelongsTo("TL_ffffff_1b.8b", "TL_ec2a8d.8b"))
	require.False(t, SubtoolBelongsTo("TL_ec2a8d_1b.8b", "short"))
}

func TestParentOf(t *testing.T) {
	require.Equal(t, "TL_ec2a8d.8b", ParentOf("TL_ec2a8d_1b.8b"))
	require.Equal(t, "TL_a6be17.8e", ParentOf("TL_a6be17_b1.8e"))
	require.Empty(t, ParentOf("TL_ec2a8d.8b"))
	require.Empty(t, ParentOf("TL_ec2a8d_1b.8b.a1b2"))
}

func TestCodeFrom(t *testing.T) {
	tests := []struct {
		err  error
		code ErrorCode
	}{
		{&MissingFieldError{Field: "name"}, CodeInvalidArgument},
		{&UnknownFieldError{Field: "bad"}, CodeInvalidArgument},
		{&DuplicateIdentifierError{Identifier: "TL_ec2a8d.8b"}, CodeAlreadyExists},
		{&DuplicateKeyError{Identifier: "TL_ec2a8d.8b"}, CodeAlreadyExists},
		{&NotFoundError{Identifier: "TL_ec2a8d.8b"}, CodeNotFound},
		{ErrWindowExhausted, CodeFailedPrecond},
		{ValidationErrors{&ConstraintViolationError{Field: "name"}}, CodeInvalidArgument},
	}
	for _, tt := range tests {
		code, ok := CodeFrom(tt.err)
		require.True(t, ok, tt.err.Error())
		require.Equal(t, tt.code, code, tt.err.Error())
	}

	_, ok := CodeFrom(errors.New("plain"))
	require.False(t, ok)
}

func TestWrap_KeepsCode(t *testing.T) {
	err := Wrap("load subtool", &NotFoundError{Path: "a.yaml", Identifier: "TL_ec2a8d_1b.8b"})
	require.EqualError(t, err, "load subtool: NOT_FOUND: a.yaml: identifier TL_ec2a8d_1b.8b is not in the content index")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestAtPath(t *testing.T) {
	err := AtPath("tools/x/common/common-metadata.yaml", ValidationErrors{
		&MissingFieldError{Field: "name"},
		&ConstraintViolationError{Field: "metadataStatus", Message: "bad"},
	})
	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "tools/x/common/common-metadata.yaml", missing.Path)
	require.Contains(t, err.Error(), "tools/x/common/common-metadata.yaml: name is required; ")
}
