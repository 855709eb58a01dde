package contentmap

import (
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/truwl/capanno-utils/internal/domain"
)

const instancePattern = domain.InstancesDir + "/*.yaml"

// Instances returns the instance job files of a subtool directory, relative
// to subtoolDir and sorted. Instance metadata documents are excluded.
func Instances(subtoolDir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(subtoolDir), instancePattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("list instances in %s: %w", subtoolDir, err)
	}
	out := make([]string, 0, len(matches))
	for _, match := range matches {
		if strings.HasSuffix(match, domain.MetadataSuffix) || strings.HasPrefix(path.Base(match), ".") {
			continue
		}
		out = append(out, match)
	}
	slices.Sort(out)
	return out, nil
}
