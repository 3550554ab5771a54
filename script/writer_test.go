package script

import "testing"

func TestSetSourceFileDeduplicates(t *testing.T) {
	w := NewWriter()
	a := w.SetSourceFile("clip.h264")
	b := w.SetSourceFile("clip.h264")
	c := w.SetSourceFile("clip.igs")
	if a != 0 || b != 0 {
		t.Fatalf("expected repeated registration to reuse index 0, got %d, %d", a, b)
	}
	if c != 1 {
		t.Fatalf("expected new path to get index 1, got %d", c)
	}
	if len(w.Sources()) != 2 {
		t.Fatalf("expected 2 distinct sources, got %d", len(w.Sources()))
	}
}

func TestAddDataBlockDeduplicatesIdenticalPayloads(t *testing.T) {
	w := NewWriter()
	w.AddDataBlock(100, Overwrite, []byte{1, 2, 3})
	w.AddDataBlock(200, Overwrite, []byte{1, 2, 3})
	w.AddDataBlock(300, Overwrite, []byte{4, 5})

	if len(w.Blocks()) != 2 {
		t.Fatalf("expected 2 distinct blocks, got %d", len(w.Blocks()))
	}
	cmds := w.Commands()
	if cmds[0].BlockIdx != cmds[1].BlockIdx {
		t.Fatalf("expected identical payloads to share a block index")
	}
	if cmds[2].BlockIdx == cmds[0].BlockIdx {
		t.Fatalf("expected distinct payload to get its own block index")
	}
}

func TestCommandSequenceOrder(t *testing.T) {
	w := NewWriter()
	idx := w.SetSourceFile("a.h264")
	w.StartFrame(1000, 0, true)
	w.CopyPESPayload(idx, 0, 4, 128)
	w.EndMarker()

	cmds := w.Commands()
	wantKinds := []Kind{KindSetSourceFile, KindStartFrame, KindCopyPESPayload, KindEndMarker}
	if len(cmds) != len(wantKinds) {
		t.Fatalf("expected %d commands, got %d", len(wantKinds), len(cmds))
	}
	for i, k := range wantKinds {
		if cmds[i].Kind != k {
			t.Errorf("command %d: got kind %v, want %v", i, cmds[i].Kind, k)
		}
	}
}
