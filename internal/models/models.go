package models

import "time"

type Label string

const (
	LabelDirectory Label = "Directory"
	LabelFile      Label = "File"
	LabelUser      Label = "User"
)

func (l Label) Valid() bool {
	switch l {
	case LabelDirectory, LabelFile, LabelUser:
		return true
	}
	return false
}

// Structural reports whether nodes with this label may take part in the
// parent forest and be owned by a user.
func (l Label) Structural() bool {
	return l == LabelDirectory || l == LabelFile
}

type EdgeKind string

const (
	EdgeHasParent EdgeKind = "HAS_PARENT" // File/Directory -> Directory
	EdgeOwnedBy   EdgeKind = "OWNED_BY"   // File/Directory -> User
)

type Node struct {
	ID        int64     `json:"id"`
	Label     Label     `json:"label"`
	Name      string    `json:"name"`
	Content   *string   `json:"content,omitempty"` // files only
	CreatedAt time.Time `json:"-"`
}

type Edge struct {
	ID    int64    `json:"id"`
	Kind  EdgeKind `json:"kind"`
	SrcID int64    `json:"src_id"`
	DstID int64    `json:"dst_id"`
}

type OwnershipPair struct {
	Node Node `json:"node"`
	User Node `json:"user"`
}

type DeleteResult struct {
	DeletedNodeIDs []int64 `json:"deleted_node_ids"`
	DeletedEdges   int64   `json:"deleted_edges"`
}
