package ids

import (
	"fmt"
	"strings"

	"github.com/truwl/capanno-utils/internal/domain"
	"github.com/truwl/capanno-utils/internal/infra/hashutil"
)

const (
	nameHashWidth    = 6
	windowWidth      = 2
	subtoolBaseLen   = 9
	versionSuffixLen = 3
)

// Known reports whether an identifier is already taken. A nil Known
// treats every candidate as free.
type Known func(id string) bool

// Derive returns the root identifier for name and version. The version
// window slides right from offset 0 until a candidate is not known.
func Derive(kind domain.Kind, name, version string, maxShift int, known Known) (string, error) {
	prefix, err := rootPrefix(kind)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(name) == "" {
		return "", &domain.MissingFieldError{Field: "name"}
	}
	if strings.TrimSpace(version) == "" {
		return "", &domain.MissingFieldError{Field: "version"}
	}
	head := prefix + "_" + hashutil.MD5Hex(name)[:nameHashWidth] + "."
	return slide(hashutil.MD5Hex(version), maxShift, known, func(window string) string {
		return head + window
	})
}

// DeriveSubtool returns the subtool identifier for subtool under parentID.
// The result keeps the parent's name hash and version suffix.
func DeriveSubtool(parentID, subtool string, maxShift int, known Known) (string, error) {
	if err := domain.ValidateIdentifier(domain.KindParentTool, parentID); err != nil {
		return "", err
	}
	if strings.TrimSpace(subtool) == "" {
		return "", &domain.MissingFieldError{Field: "subtool"}
	}
	head := parentID[:subtoolBaseLen] + "_"
	tail := parentID[len(parentID)-versionSuffixLen:]
	return slide(hashutil.MD5Hex(subtool), maxShift, known, func(window string) string {
		return head + window + tail
	})
}

func slide(digest string, maxShift int, known Known, build func(window string) string) (string, error) {
	limit := clampShift(maxShift)
	for start := 0; start <= limit; start++ {
		window, ok := hashutil.Window(digest, start, windowWidth)
		if !ok {
			break
		}
		candidate := build(window)
		if known == nil || !known(candidate) {
			return candidate, nil
		}
	}
	return "", domain.ErrWindowExhausted
}

func clampShift(maxShift int) int {
	limit := hashutil.MaxWindowStart(windowWidth)
	if maxShift <= 0 || maxShift > limit {
		return limit
	}
	return maxShift
}

func rootPrefix(kind domain.Kind) (string, error) {
	switch kind {
	case domain.KindParentTool, domain.KindScript, domain.KindWorkflow:
		return kind.Prefix(), nil
	default:
		return "", domain.E(domain.CodeInvalidArgument, "derive identifier", fmt.Sprintf("%s identifiers are not derived from a name and version", kind), nil)
	}
}
