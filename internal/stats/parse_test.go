package stats

import (
	"reflect"
	"testing"
)

func TestParsePlayerList(t *testing.T) {
	stats := ParsePlayerList("There are 3 of a max of 20 players online: alice, bob, carol")
	if stats.Online != 3 || stats.Max != 20 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if !reflect.DeepEqual(stats.Names, []string{"alice", "bob", "carol"}) {
		t.Fatalf("unexpected names: %v", stats.Names)
	}
}

func TestParsePlayerListEmptyServer(t *testing.T) {
	stats := ParsePlayerList("There are 0 of a max of 20 players online:")
	if stats.Online != 0 || stats.Max != 20 || len(stats.Names) != 0 {
		t.Fatalf("unexpected result: %+v", stats)
	}
}

func TestParsePlayerListMalformed(t *testing.T) {
	stats := ParsePlayerList("Unknown command. Type \"/help\" for help.")
	if stats.Online != 0 || stats.Max != 0 || len(stats.Names) != 0 {
		t.Fatalf("malformed output must yield the zero snapshot, got %+v", stats)
	}
	if stats.Names == nil {
		t.Fatalf("names must be an empty slice, not nil")
	}
}

func TestParseTPS(t *testing.T) {
	tps := ParseTPS("TPS from last 1m, 5m, 15m: 20.0, 19.8, 19.95")
	if tps == nil || *tps != 19.95 {
		t.Fatalf("expected trailing 19.95, got %v", tps)
	}

	tps = ParseTPS("Current TPS = 20")
	if tps == nil || *tps != 20 {
		t.Fatalf("expected 20, got %v", tps)
	}
}

func TestParseTPSUnparsable(t *testing.T) {
	for _, out := range []string{"", "Unknown command", "no numbers here"} {
		if tps := ParseTPS(out); tps != nil {
			t.Fatalf("expected nil tps for %q, got %v", out, *tps)
		}
	}
}
