package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/adapter"
)

func TestAdapter_ListFoldersSortedByName(t *testing.T) {
	m := NewAdapter()
	ctx := context.Background()

	for _, name := range []string{"Law", "Computer Science", "Accounting"} {
		if _, err := m.AddFolder(RootID, name); err != nil {
			t.Fatalf("AddFolder failed: %v", err)
		}
	}
	if _, err := m.AddFile(RootID, "stray.pdf", adapter.DocumentMimeType, 10); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	folders, err := m.ListFolders(ctx, RootID)
	if err != nil {
		t.Fatalf("ListFolders failed: %v", err)
	}
	if len(folders) != 3 {
		t.Fatalf("Expected 3 folders, got %d", len(folders))
	}
	want := []string{"Accounting", "Computer Science", "Law"}
	for i, f := range folders {
		if f.Name != want[i] {
			t.Errorf("folders[%d] = %q, want %q", i, f.Name, want[i])
		}
	}
}

func TestAdapter_ListFilesOnlyDocuments(t *testing.T) {
	m := NewAdapter()
	ctx := context.Background()

	m.AddFile(RootID, "CSC101.pdf", adapter.DocumentMimeType, 2048)
	m.AddFile(RootID, "notes.docx", "application/msword", 10)
	m.AddFolder(RootID, "Sub")

	files, err := m.ListFiles(ctx, RootID)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("Expected 1 file, got %d", len(files))
	}
	if files[0].Size != 2048 || !files[0].HasSize {
		t.Errorf("unexpected size: %+v", files[0])
	}
	if files[0].WebViewLink == "" || files[0].WebContentLink == "" {
		t.Error("expected view and download links")
	}
}

func TestAdapter_UnknownParent(t *testing.T) {
	m := NewAdapter()
	_, err := m.ListFolders(context.Background(), "missing")
	if !errors.Is(err, adapter.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := m.AddFolder("missing", "x"); !errors.Is(err, adapter.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from AddFolder, got %v", err)
	}
}

func TestAdapter_NameLimit(t *testing.T) {
	m := NewAdapter()
	_, err := m.AddFolder(RootID, strings.Repeat("a", maxNameLength+1))
	if err == nil || !strings.Contains(err.Error(), "name too long") {
		t.Errorf("Expected error about name length, got: %v", err)
	}
}

func TestAdapter_FailWithAndCalls(t *testing.T) {
	m := NewAdapter()
	ctx := context.Background()
	boom := errors.New("drive unavailable")

	m.FailWith(boom)
	if _, err := m.ListFolders(ctx, RootID); !errors.Is(err, boom) {
		t.Errorf("Expected injected error, got %v", err)
	}
	m.FailWith(nil)
	if _, err := m.ListFolders(ctx, RootID); err != nil {
		t.Errorf("Expected recovery, got %v", err)
	}
	if m.Calls() != 2 {
		t.Errorf("Calls = %d, want 2", m.Calls())
	}
}

func TestLoadFixture(t *testing.T) {
	fixture := `{
	  "folders": [
	    {"name": "Computer Science", "folders": [
	      {"name": "100 Level", "folders": [
	        {"name": "First Semester", "folders": [
	          {"name": "2024/25 Session", "files": [{"name": "CSC101.pdf", "size": 1024}]}
	        ]}
	      ]}
	    ]}
	  ]
	}`
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(fixture), 0o600); err != nil {
		t.Fatal(err)
	}

	m, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture failed: %v", err)
	}
	ctx := context.Background()

	id := RootID
	for _, name := range []string{"Computer Science", "100 Level", "First Semester", "2024/25 Session"} {
		folders, err := m.ListFolders(ctx, id)
		if err != nil {
			t.Fatalf("ListFolders failed: %v", err)
		}
		if len(folders) != 1 || folders[0].Name != name {
			t.Fatalf("Expected single folder %q, got %+v", name, folders)
		}
		id = folders[0].ID
	}
	files, err := m.ListFiles(ctx, id)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(files) != 1 || files[0].Name != "CSC101.pdf" || files[0].MIMEType != adapter.DocumentMimeType {
		t.Errorf("unexpected files: %+v", files)
	}
}
