package vfs

// NodeRequest has common fields embedded in concrete request types
type NodeRequest struct {
	Path string
	Type NodeCreateRequestType
}

// NodeCreateRequestType valid types are FileNodeType "file", DirNodeType "dir"
type NodeCreateRequestType string

const (
	FileNodeType NodeCreateRequestType = "file"
	DirNodeType  NodeCreateRequestType = "dir"
)

// FileCreateRequest describes a file to create and where its payload comes from.
// Sources are tried in Priority order until one succeeds; a request without
// sources creates an empty file.
type FileCreateRequest struct {
	NodeRequest
	Meta    map[string]string
	Sources []FileSource
}

type DirCreateRequest struct {
	NodeRequest
}

// FileSource pairs a concrete [Source] with its priority
type FileSource struct {
	Source
	Priority int // Lower number = higher priority
}

// Manifest is a batch of create requests, e.g. loaded from a manifest file.
// Dirs are applied before Files.
type Manifest struct {
	Dirs  []*DirCreateRequest
	Files []*FileCreateRequest
}
