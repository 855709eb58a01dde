package domain

import "time"

const (
	DefaultIndexBackend     = IndexBackendFile
	DefaultIndexFile        = ".cache/tools_index"
	DefaultBoltIndexFile    = ".cache/tools_index.db"
	DefaultConfigName       = ".capanno"
	DefaultMaxWindowShift   = 30
	DefaultSubtoolVersion   = "0.1"
	DefaultParentMetadata   = "../common/common-metadata.yaml"
	DefaultMetadataStatus   = StatusIncomplete
	DefaultInstanceIDLength = 4
	DefaultMetricsAddress   = "127.0.0.1:9464"
	DefaultWatchDebounce    = 500 * time.Millisecond
)

const (
	ToolsDir     = "tools"
	ScriptsDir   = "scripts"
	WorkflowsDir = "workflows"
	CommonDir    = "common"
	InstancesDir = "instances"

	// MainSubtool names the subtool that stands for the tool itself.
	MainSubtool = "__main__"

	CommonMetadataFile = "common-metadata.yaml"
	MetadataSuffix     = "-metadata.yaml"
)

// IndexBackend selects the content index store.
type IndexBackend string

const (
	IndexBackendFile IndexBackend = "file"
	IndexBackendBolt IndexBackend = "bolt"
)
