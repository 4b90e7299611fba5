package graph

import (
	"errors"
	"testing"

	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/kmer"
)

func mustPack(t *testing.T, codec *kmer.Codec, seq string) kmer.Kmer {
	t.Helper()
	km, err := codec.Pack(seq)
	if err != nil {
		t.Fatal(err)
	}
	return km
}

func TestFindOrInsertIsIdempotent(t *testing.T) {
	codec, _ := kmer.NewCodec(5)
	tbl := NewHashTable(codec, 32, DefaultLoadFactor)
	km := mustPack(t, codec, "ACGTA")

	h1, inserted1, err := tbl.FindOrInsert(km)
	if err != nil || !inserted1 {
		t.Fatalf("first insert: h=%v inserted=%v err=%v", h1, inserted1, err)
	}
	h2, inserted2, err := tbl.FindOrInsert(km)
	if err != nil || inserted2 {
		t.Fatalf("second insert: h=%v inserted=%v err=%v", h2, inserted2, err)
	}
	if h1 != h2 {
		t.Errorf("handles differ across repeated insert: %v != %v", h1, h2)
	}
}

func TestFindOrInsertCanonicalizesReverseComplement(t *testing.T) {
	codec, _ := kmer.NewCodec(5)
	tbl := NewHashTable(codec, 32, DefaultLoadFactor)
	fwd := mustPack(t, codec, "ACGTA")
	rc := codec.ReverseComplement(fwd)

	h1, _, err := tbl.FindOrInsert(fwd)
	if err != nil {
		t.Fatal(err)
	}
	h2 := tbl.Find(rc)
	if h2 != h1 {
		t.Errorf("Find(reverse complement) = %v, want the same handle %v as the forward strand", h2, h1)
	}
}

func TestFindReturnsNotFoundForAbsentKey(t *testing.T) {
	codec, _ := kmer.NewCodec(5)
	tbl := NewHashTable(codec, 32, DefaultLoadFactor)
	if h := tbl.Find(mustPack(t, codec, "ACGTA")); h != NotFound {
		t.Errorf("Find on empty table = %v, want NotFound", h)
	}
}

func TestFindOrInsertReportsCapacityExceeded(t *testing.T) {
	codec, _ := kmer.NewCodec(5)
	tbl := NewHashTable(codec, 4, 1.0) // maxFill = 4
	bases := []string{"AAAAA", "CCCCC", "GATTA", "ACCCA", "ACGTA"}
	for i, seq := range bases {
		_, _, err := tbl.FindOrInsert(mustPack(t, codec, seq))
		if i < 4 {
			if err != nil {
				t.Fatalf("insert %d (%s): unexpected error %v", i, seq, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("insert %d (%s): expected CapacityExceeded", i, seq)
		}
		var kerr *internal.Error
		if !errors.As(err, &kerr) || kerr.Kind != internal.CapacityExceeded {
			t.Errorf("insert %d: error = %v, want CapacityExceeded", i, err)
		}
	}
}

func TestNeighborLookupFollowsShift(t *testing.T) {
	codec, _ := kmer.NewCodec(5)
	tbl := NewHashTable(codec, 32, DefaultLoadFactor)
	first := mustPack(t, codec, "ACGTA")
	second := codec.ShiftLeftAppend(first, kmer.C)

	h1, _, err := tbl.FindOrInsert(first)
	if err != nil {
		t.Fatal(err)
	}
	h2, _, err := tbl.FindOrInsert(second)
	if err != nil {
		t.Fatal(err)
	}
	if got := tbl.NeighborLookup(h1, kmer.Forward, kmer.C); got != h2 {
		t.Errorf("NeighborLookup(h1, Forward, C) = %v, want %v", got, h2)
	}
}

func TestEachVisitsEveryFilledBucketExactlyOnce(t *testing.T) {
	codec, _ := kmer.NewCodec(5)
	tbl := NewHashTable(codec, 32, DefaultLoadFactor)
	want := []string{"AAAAA", "CCCCC", "GATTA", "ACCCA"}
	for _, seq := range want {
		if _, _, err := tbl.FindOrInsert(mustPack(t, codec, seq)); err != nil {
			t.Fatal(err)
		}
	}
	seen := make(map[string]bool)
	tbl.Each(func(h Handle) {
		seen[tbl.KeyAt(h).String()] = true
	})
	if len(seen) != len(want) {
		t.Fatalf("Each visited %d buckets, want %d", len(seen), len(want))
	}
	for _, seq := range want {
		canon := codec.Canonical(mustPack(t, codec, seq)).String()
		if !seen[canon] {
			t.Errorf("Each never visited canonical key %s", canon)
		}
	}
}
