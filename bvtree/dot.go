package bvtree

import (
	"fmt"

	"github.com/emicklei/dot"
	"github.com/goldfishsim/goldfish/block"
)

// DumpDot renders the tree as a Graphviz graph: one box node per block
// (labeled with its digest and graffiti) linked to its parent, plus one
// node per vote linked to its target. Ported from the Rust original's
// dump_dotfile, swapped from hand-built string concatenation to a real
// graph-building library.
func (t *BvTree) DumpDot() string {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "BT")
	g.Attr("style", "filled")
	g.Attr("color", "lightgrey")

	blockNode := func(b block.Block) dot.Node {
		id := "b_" + b.Digest().String()
		return g.Node(id).
			Attr("shape", "box").
			Attr("style", "filled").
			Attr("color", "white").
			Attr("label", fmt.Sprintf("%s\\n%s", b.Digest(), b.Payload.Graffiti))
	}

	for _, b := range t.blocks {
		blockNode(b)
	}
	genesisDigest := block.Genesis().Digest()
	for _, b := range t.blocks {
		if b.Digest() == genesisDigest {
			continue
		}
		parent, ok := t.blocks[b.Parent]
		if !ok {
			continue
		}
		g.Edge(blockNode(b), blockNode(parent))
	}

	for _, v := range t.votes {
		vNode := g.Node("v_"+v.Digest().String()).
			Attr("shape", "box").
			Attr("style", "filled").
			Attr("color", "white").
			Attr("label", fmt.Sprintf("id=%d t=%d", v.Ticket.Id, v.Ticket.Slot))
		target, ok := t.blocks[v.Target]
		if !ok {
			continue
		}
		g.Edge(vNode, blockNode(target))
	}

	return g.String()
}
