package graph

import "testing"

func TestAddCoverageSaturates(t *testing.T) {
	s := NewNodeStore(4, 1)
	s.AddCoverage(0, 0, CoverageMax+50)
	if got := s.Coverage(0, 0); got != CoverageMax {
		t.Errorf("Coverage after overflow add = %d, want %d", got, CoverageMax)
	}
}

func TestSetEdgeIsIdempotentAndOrdered(t *testing.T) {
	s := NewNodeStore(4, 1)
	s.SetEdge(0, 0, succDir, 2) // G
	s.SetEdge(0, 0, succDir, 0) // A
	s.SetEdge(0, 0, succDir, 2) // repeat, must not toggle off
	e := s.Edges(0, 0)
	if e&edgeBit(succDir, 2) == 0 || e&edgeBit(succDir, 0) == 0 {
		t.Errorf("expected both successor bits set, got %08b", e)
	}
	if e&edgeBit(succDir, 1) != 0 || e&edgeBit(succDir, 3) != 0 {
		t.Errorf("unexpected successor bits set, got %08b", e)
	}
}

func TestClearEdgeBitRemovesOnlyThatBit(t *testing.T) {
	s := NewNodeStore(4, 1)
	s.SetEdge(0, 0, predDir, 1)
	s.SetEdge(0, 0, predDir, 3)
	s.ClearEdgeBit(0, 0, predDir, 1)
	e := s.Edges(0, 0)
	if e&edgeBit(predDir, 1) != 0 {
		t.Error("cleared bit is still set")
	}
	if e&edgeBit(predDir, 3) == 0 {
		t.Error("untouched bit was cleared")
	}
}

func TestDegreeCountsAcrossMaskedColors(t *testing.T) {
	s := NewNodeStore(4, 3)
	s.SetEdge(0, 0, succDir, 0)
	s.SetEdge(0, 1, succDir, 1)
	s.SetEdge(0, 2, succDir, 0) // duplicate base in a different color

	mask := ColorMaskOf(0, 1)
	if got := s.Degree(0, 3, mask, succDir); got != 2 {
		t.Errorf("Degree over colors {0,1} = %d, want 2", got)
	}
	all := AllColors(3)
	if got := s.Degree(0, 3, all, succDir); got != 2 {
		t.Errorf("Degree over all colors = %d, want 2 (color 2 duplicates base A)", got)
	}
}

func TestMarkDeletedIsObservedByIsDeleted(t *testing.T) {
	s := NewNodeStore(4, 1)
	if s.IsDeleted(2) {
		t.Fatal("fresh node reported as deleted")
	}
	s.MarkDeleted(2)
	if !s.IsDeleted(2) {
		t.Error("MarkDeleted did not take effect")
	}
	if s.IsDeleted(1) {
		t.Error("MarkDeleted affected an unrelated handle")
	}
}
