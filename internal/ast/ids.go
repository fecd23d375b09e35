package ast

type (
	// NodeID addresses any statement or expression of a Tree.
	NodeID uint32
	// PayloadID indexes the per-kind payload arena of a node.
	PayloadID uint32
)

const (
	NoNodeID    NodeID    = 0
	NoPayloadID PayloadID = 0
)

func (id NodeID) IsValid() bool    { return id != NoNodeID }
func (id PayloadID) IsValid() bool { return id != NoPayloadID }
