package diff

import (
	"reflect"
	"strings"
	"testing"
)

const sampleDiff = `diff --git a/main.go b/main.go
index 1234567..89abcde 100644
--- a/main.go
+++ b/main.go
@@ -10,7 +10,8 @@ func main() {
 	a := 1
 	b := 2
-	c := a + b
+	c := a - b
+	d := c * 2
 	fmt.Println(c)
 	fmt.Println(d)
 	return
 	_ = 0
@@ -30,3 +31,4 @@
 }
+// added trailer
 // a
 // b
`

func TestParseSingleFile(t *testing.T) {
	files, errs := Parse(sampleDiff)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}

	f := files[0]
	if f.Path != "main.go" {
		t.Errorf("Path = %q, want main.go", f.Path)
	}
	if f.Status != StatusModified {
		t.Errorf("Status = %q, want modified", f.Status)
	}
	if len(f.Hunks) != 2 {
		t.Fatalf("got %d hunks, want 2", len(f.Hunks))
	}

	h := f.Hunks[0]
	if h.OldStart != 10 || h.OldLines != 7 || h.NewStart != 10 || h.NewLines != 8 {
		t.Errorf("hunk bounds = -%d,%d +%d,%d, want -10,7 +10,8", h.OldStart, h.OldLines, h.NewStart, h.NewLines)
	}
	if h.Header != "func main() {" {
		t.Errorf("hunk header = %q", h.Header)
	}
	if len(h.Lines) != 9 {
		t.Fatalf("got %d body lines, want 9", len(h.Lines))
	}
	if h.Lines[2].Kind != LineRemoved || h.Lines[2].OldNum != 12 || h.Lines[2].NewNum != 0 {
		t.Errorf("removed line = %+v", h.Lines[2])
	}
	if h.Lines[3].Kind != LineAdded || h.Lines[3].NewNum != 12 || h.Lines[3].OldNum != 0 {
		t.Errorf("added line = %+v", h.Lines[3])
	}
}

// Running counters must land exactly on start+len-1 for both sides of every
// hunk.
func TestParseLineCounters(t *testing.T) {
	files, errs := Parse(sampleDiff)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	for _, f := range files {
		for _, h := range f.Hunks {
			var lastOld, lastNew int
			for _, l := range h.Lines {
				if l.OldNum > 0 {
					lastOld = l.OldNum
				}
				if l.NewNum > 0 {
					lastNew = l.NewNum
				}
			}
			if want := h.OldStart + h.OldLines - 1; lastOld != want {
				t.Errorf("hunk %s: last old line %d, want %d", h.HeaderLine(), lastOld, want)
			}
			if want := h.NewStart + h.NewLines - 1; lastNew != want {
				t.Errorf("hunk %s: last new line %d, want %d", h.HeaderLine(), lastNew, want)
			}
		}
	}
}

func TestParseAddedFile(t *testing.T) {
	text := `diff --git a/notes.txt b/notes.txt
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/notes.txt
@@ -0,0 +1,3 @@
+one
+two
+three
`
	files, errs := Parse(text)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	f := files[0]
	if f.Status != StatusAdded {
		t.Errorf("Status = %q, want added", f.Status)
	}
	h := f.Hunks[0]
	if h.OldLines != 0 || h.NewLines != 3 {
		t.Errorf("hunk lengths = %d,%d, want 0,3", h.OldLines, h.NewLines)
	}
	for i, l := range h.Lines {
		if l.Kind != LineAdded || l.NewNum != i+1 {
			t.Errorf("line %d = %+v", i, l)
		}
	}
}

func TestParseDeletedFile(t *testing.T) {
	text := `diff --git a/old.txt b/old.txt
deleted file mode 100644
index e69de29..0000000
--- a/old.txt
+++ /dev/null
@@ -1,2 +0,0 @@
-one
-two
`
	files, errs := Parse(text)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	f := files[0]
	if f.Status != StatusDeleted {
		t.Errorf("Status = %q, want deleted", f.Status)
	}
	if f.Path != "old.txt" {
		t.Errorf("Path = %q, want old.txt", f.Path)
	}
	if f.Hunks[0].NewLines != 0 {
		t.Errorf("NewLines = %d, want 0", f.Hunks[0].NewLines)
	}
}

func TestParseRename(t *testing.T) {
	text := `diff --git a/pkg/a.go b/pkg/b.go
similarity index 90%
rename from pkg/a.go
rename to pkg/b.go
index 1111111..2222222 100644
--- a/pkg/a.go
+++ b/pkg/b.go
@@ -1,3 +1,3 @@
 package pkg
-// old comment
+// new comment

`
	files, errs := Parse(text)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	f := files[0]
	if f.Status != StatusRenamed {
		t.Errorf("Status = %q, want renamed", f.Status)
	}
	if f.Path != "pkg/b.go" || f.OldPath != "pkg/a.go" {
		t.Errorf("paths = %q <- %q", f.Path, f.OldPath)
	}
}

func TestParsePureRename(t *testing.T) {
	text := `diff --git a/util.go b/helpers.go
similarity index 100%
rename from util.go
rename to helpers.go
`
	files, errs := Parse(text)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	f := files[0]
	if f.Path != "helpers.go" || f.OldPath != "util.go" || len(f.Hunks) != 0 {
		t.Errorf("file = %+v", f)
	}
}

func TestParseBinaryFile(t *testing.T) {
	text := `diff --git a/logo.png b/logo.png
index 1111111..2222222 100644
Binary files a/logo.png and b/logo.png differ
`
	files, errs := Parse(text)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	f := files[0]
	if !f.Binary {
		t.Error("Binary = false, want true")
	}
	if len(f.Hunks) != 0 {
		t.Errorf("got %d hunks, want 0", len(f.Hunks))
	}
	if f.Path != "logo.png" {
		t.Errorf("Path = %q, want logo.png", f.Path)
	}
}

func TestParseNoNewlineMarker(t *testing.T) {
	text := `diff --git a/a.txt b/a.txt
--- a/a.txt
+++ b/a.txt
@@ -1 +1 @@
-old
\ No newline at end of file
+new
\ No newline at end of file
`
	files, errs := Parse(text)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	h := files[0].Hunks[0]
	if len(h.Lines) != 2 {
		t.Fatalf("got %d lines, want 2 (markers must not count)", len(h.Lines))
	}
	if h.Lines[0].OldNum != 1 || h.Lines[1].NewNum != 1 {
		t.Errorf("lines = %+v", h.Lines)
	}
}

// One malformed file must not abort the rest of the diff.
func TestParseMalformedFileRecovers(t *testing.T) {
	text := `diff --git a/good.go b/good.go
--- a/good.go
+++ b/good.go
@@ -1 +1 @@
-x
+y
diff --git a/bad.go b/bad.go
--- a/bad.go
+++ b/bad.go
@@ -zz +1,2 @@
+hello
diff --git a/also.go b/also.go
--- a/also.go
+++ b/also.go
@@ -1 +1,2 @@
 x
+z
`
	files, errs := Parse(text)
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if files[0].Path != "good.go" || files[1].Path != "also.go" {
		t.Errorf("files = %q, %q", files[0].Path, files[1].Path)
	}
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	if errs[0].Path != "bad.go" {
		t.Errorf("error path = %q, want bad.go", errs[0].Path)
	}
	if !strings.Contains(errs[0].Header, "@@ -zz") {
		t.Errorf("error header = %q", errs[0].Header)
	}
}

func TestParseTruncatedHunk(t *testing.T) {
	text := `diff --git a/t.go b/t.go
--- a/t.go
+++ b/t.go
@@ -1,5 +1,6 @@
 ctx
+add
`
	files, errs := Parse(text)
	if len(files) != 0 {
		t.Fatalf("got %d files, want 0", len(files))
	}
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	if !strings.Contains(errs[0].Error(), "shorter than declared") {
		t.Errorf("error = %v", errs[0].Error())
	}
}

func TestParseEmptyInput(t *testing.T) {
	files, errs := Parse("")
	if len(files) != 0 || len(errs) != 0 {
		t.Errorf("got %d files, %d errors, want none", len(files), len(errs))
	}
}

// Rendering a parsed hunk and parsing it again must reproduce the same
// structure.
func TestParseRenderRoundTrip(t *testing.T) {
	files, errs := Parse(sampleDiff)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}

	var b strings.Builder
	b.WriteString("diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n")
	for _, h := range files[0].Hunks {
		b.WriteString(h.String())
	}

	again, errs := Parse(b.String())
	if len(errs) != 0 {
		t.Fatalf("re-parse errors: %v", errs)
	}
	if !reflect.DeepEqual(files[0].Hunks, again[0].Hunks) {
		t.Errorf("hunks changed across render/parse:\n%+v\n%+v", files[0].Hunks, again[0].Hunks)
	}
}
