package convo

import "testing"

func TestToDirnameSlugifiesTitle(t *testing.T) {
	got := toDirname("jp-c17457886043-otvo8", "Fix Login Bug!!")
	want := "fix-login-bug-jp-c17457886043-otvo8"
	if got != want {
		t.Fatalf("toDirname = %q, want %q", got, want)
	}
}

func TestToDirnameFallsBackToIDForEmptyTitle(t *testing.T) {
	id := "jp-c17457886043-otvo8"
	if got := toDirname(id, "   "); got != id {
		t.Fatalf("toDirname = %q, want bare id %q", got, id)
	}
}
