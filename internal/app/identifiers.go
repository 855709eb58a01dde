package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/truwl/capanno-utils/internal/domain"
	"github.com/truwl/capanno-utils/internal/infra/telemetry"
)

// MakeIDRequest names the record to allocate an identifier for. Name and
// Version apply to root kinds, ParentID and Subtool to subtools, BaseID to
// instances. Identifier claims a caller-chosen identifier instead.
type MakeIDRequest struct {
	Kind       domain.Kind
	Name       string
	Version    string
	ParentID   string
	Subtool    string
	BaseID     string
	Identifier string
}

// MakeID allocates a new identifier and records it in the content index.
// Instance identifiers are random and are not indexed. Subtool identifiers
// require an indexed parent.
func (a *Application) MakeID(ctx context.Context, req MakeIDRequest) (string, error) {
	if req.Identifier != "" {
		return a.claimID(ctx, req)
	}
	var (
		id  string
		err error
	)
	switch req.Kind {
	case domain.KindParentTool, domain.KindScript, domain.KindWorkflow:
		if req.Name == "" || req.Version == "" {
			return "", domain.E(domain.CodeInvalidArgument, "make id", "name and version are required", nil)
		}
		id, err = a.allocator.Parent(ctx, req.Kind, req.Name, req.Version)
	case domain.KindSubtool:
		if req.ParentID == "" || req.Subtool == "" {
			return "", domain.E(domain.CodeInvalidArgument, "make id", "parent identifier and subtool name are required", nil)
		}
		if err := a.allocator.Verify(ctx, req.ParentID); err != nil {
			return "", err
		}
		id, err = a.allocator.Subtool(ctx, req.ParentID, req.Subtool)
	case domain.KindToolInstance, domain.KindScriptInstance, domain.KindWorkflowInstance:
		id, err = a.allocator.Instance(req.BaseID)
	default:
		return "", domain.E(domain.CodeInvalidArgument, "make id", fmt.Sprintf("unknown identifier kind %q", req.Kind), nil)
	}
	if err != nil {
		return "", err
	}
	a.logger.Info("identifier allocated",
		telemetry.EventField(telemetry.EventIdentifierReserved),
		telemetry.IdentifierField(id),
		zap.String("kind", string(req.Kind)),
	)
	return id, nil
}

// claimID records req.Identifier in the content index. It fails with a
// DuplicateIdentifierError when the identifier is already indexed.
func (a *Application) claimID(ctx context.Context, req MakeIDRequest) (string, error) {
	kind, err := domain.KindOf(req.Identifier)
	if err != nil {
		return "", err
	}
	if req.Kind != "" && req.Kind != kind {
		return "", domain.E(domain.CodeInvalidArgument, "claim id", fmt.Sprintf("%s is not a %s identifier", req.Identifier, req.Kind), nil)
	}
	switch kind {
	case domain.KindParentTool, domain.KindScript, domain.KindWorkflow:
	case domain.KindSubtool:
		parentID := req.ParentID
		if parentID == "" {
			parentID = domain.ParentOf(req.Identifier)
		}
		if !domain.SubtoolBelongsTo(req.Identifier, parentID) {
			return "", domain.E(domain.CodeInvalidArgument, "claim id", fmt.Sprintf("%s does not belong to %s", req.Identifier, parentID), nil)
		}
		if err := a.allocator.Verify(ctx, parentID); err != nil {
			return "", err
		}
	default:
		return "", domain.E(domain.CodeInvalidArgument, "claim id", fmt.Sprintf("%s identifiers are not indexed", kind), nil)
	}
	if err := a.allocator.Claim(ctx, req.Identifier); err != nil {
		return "", err
	}
	a.logger.Info("identifier claimed",
		telemetry.EventField(telemetry.EventIdentifierReserved),
		telemetry.IdentifierField(req.Identifier),
		zap.String("kind", string(kind)),
	)
	return req.Identifier, nil
}
