package types

// RefType is the kind of git reference a version name resolves to in the archive URL scheme
type RefType string

const (
	RefTypeTag    RefType = "tags"
	RefTypeBranch RefType = "heads"
)

// ModelID identifies a model repository on the hub, e.g. "org/model-x"
type ModelID string

func (m ModelID) String() string {
	return string(m)
}
