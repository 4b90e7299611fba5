package links

import (
	"github.com/exascience/cortex/graph"
	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/kmer"
)

type cursor struct {
	node int32
}

// ThreadRead threads seq (sequenced for color) through g under mask,
// recording a junction choice into store at every active origin each
// time the walk passes through a node with out-degree >1 in the walked
// direction (spec.md §4.7). A node becomes a new active origin the
// moment it is visited with out-degree >1; it is retired (simply
// dropped from the active set) when the read ends or when a base fails
// to match any existing successor edge -- "if a read disagrees with
// the graph... the walk terminates and all active origins retire at
// their current depth". ThreadRead does nothing (not an error) if
// seq's leading k-mer is absent from the graph. mask selects which
// colors' edges count toward a node being "branching"; color selects
// which per-color counter in the trie each junction's coverage is
// recorded against.
func ThreadRead(store *Store, g *graph.Graph, mask graph.ColorMask, color int, seq []byte) error {
	codec := g.Table.Codec()
	k := codec.K()
	if len(seq) < k {
		return nil
	}

	window, err := codec.Pack(string(seq[:k]))
	if err != nil {
		return internal.Errorf(internal.InvalidInput, "%v", err)
	}
	handle := g.Table.Find(window)
	if handle == graph.NotFound {
		return nil
	}
	canon := g.Table.KeyAt(handle)

	var active []cursor
	prevBranching := false
	if dir := graph.OrientedDir(window, canon); g.Degree(handle, mask, dir) > 1 {
		active = append(active, cursor{node: store.root(handle, dir)})
		prevBranching = true
	}

	prevWindow, prevCanon := window, canon
	for i := k; i < len(seq); i++ {
		nextWindow, err := codec.Pack(string(seq[i-k+1 : i+1]))
		if err != nil {
			return internal.Errorf(internal.InvalidInput, "%v", err)
		}
		nextHandle := g.Table.Find(nextWindow)
		if nextHandle == graph.NotFound {
			break
		}
		nextCanon := g.Table.KeyAt(nextHandle)
		_, base := graph.StepDirection(prevWindow, prevCanon, nextWindow, nextCanon)

		if prevBranching {
			for j := range active {
				active[j].node = store.advance(active[j].node, base, color)
			}
		}

		prevBranching = false
		if nextDir := graph.OrientedDir(nextWindow, nextCanon); g.Degree(nextHandle, mask, nextDir) > 1 {
			active = append(active, cursor{node: store.root(nextHandle, nextDir)})
			prevBranching = true
		}

		prevWindow, prevCanon = nextWindow, nextCanon
	}
	return nil
}

// Forward and Reverse re-export kmer's direction constants so callers
// of this package never need to import kmer solely for link
// directions.
const (
	Forward = kmer.Forward
	Reverse = kmer.Reverse
)
