package bvtree

import (
	"github.com/goldfishsim/goldfish/block"
	"github.com/goldfishsim/goldfish/hash"
)

// BufferAugmented layers a tree's accepted state underneath a set of
// not-yet-merged buffered blocks/votes, so validation can resolve
// dependencies that are only buffered so far without merging them first.
type BufferAugmented struct {
	tree           *BvTree
	danglingBlocks map[hash.Hash]block.Block
	danglingVotes  map[hash.Hash]block.Vote
}

// NewBufferAugmented wraps tree with the given buffered blocks/votes.
func NewBufferAugmented(tree *BvTree, danglingBlocks map[hash.Hash]block.Block, danglingVotes map[hash.Hash]block.Vote) *BufferAugmented {
	return &BufferAugmented{tree: tree, danglingBlocks: danglingBlocks, danglingVotes: danglingVotes}
}

var _ block.BvSet = (*BufferAugmented)(nil)

func (a *BufferAugmented) GetBlock(h hash.Hash) (block.Block, bool) {
	if b, ok := a.tree.GetBlock(h); ok {
		return b, true
	}
	b, ok := a.danglingBlocks[h]
	return b, ok
}

func (a *BufferAugmented) GetVote(h hash.Hash) (block.Vote, bool) {
	if v, ok := a.tree.GetVote(h); ok {
		return v, true
	}
	v, ok := a.danglingVotes[h]
	return v, ok
}
