package sources

import (
	"context"
	"testing"
)

func TestFlatpakCheckPending(t *testing.T) {
	runner := newFakeRunner()
	runner.on("flatpak list --app --columns=application,version",
		"org.mozilla.firefox 126.0\norg.gimp.GIMP 2.10.36\n", nil)
	runner.on("flatpak remote-ls --updates --columns=application,version",
		"org.mozilla.firefox 126.0.1\n", nil)

	a := &FlatpakAdapter{run: runner.run, look: foundLook}
	items, err := a.CheckPending(context.Background())
	if err != nil {
		t.Fatalf("CheckPending() failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("CheckPending() returned %d items, want 1", len(items))
	}
	item := items[0]
	if item.Name != "org.mozilla.firefox" {
		t.Errorf("item name = %q", item.Name)
	}
	if item.CurrentVersion != "126.0" || item.NewVersion != "126.0.1" {
		t.Errorf("item versions = %q -> %q, want 126.0 -> 126.0.1", item.CurrentVersion, item.NewVersion)
	}
}

func TestFlatpakCheckPending_NoInstalledVersion(t *testing.T) {
	// A pending runtime update has no entry in the --app list; the
	// current version stays empty rather than failing the check.
	runner := newFakeRunner()
	runner.on("flatpak list --app --columns=application,version", "", nil)
	runner.on("flatpak remote-ls --updates --columns=application,version",
		"org.freedesktop.Platform 23.08\n", nil)

	a := &FlatpakAdapter{run: runner.run, look: foundLook}
	items, err := a.CheckPending(context.Background())
	if err != nil {
		t.Fatalf("CheckPending() failed: %v", err)
	}
	if len(items) != 1 || items[0].CurrentVersion != "" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestFlatpakApply_PartialFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.on("flatpak update -y org.mozilla.firefox", "Updating...\n", nil)
	runner.on("flatpak update -y org.gimp.GIMP", "error: no space left\n", realExitError(t, 1))

	a := &FlatpakAdapter{run: runner.run, look: foundLook}
	items := []PendingItem{
		{Source: Flatpak, Name: "org.mozilla.firefox"},
		{Source: Flatpak, Name: "org.gimp.GIMP"},
	}

	res, err := a.Apply(context.Background(), items, Options{})
	if err != nil {
		t.Fatalf("Apply() with a partial success should not return an error, got: %v", err)
	}
	if res.Succeeded != 1 || res.Failed != 1 {
		t.Errorf("Apply() = %d succeeded / %d failed, want 1/1", res.Succeeded, res.Failed)
	}
	if res.Err == nil {
		t.Error("result should carry the per-item failure")
	}
}

func TestFlatpakApply_AllFail(t *testing.T) {
	runner := newFakeRunner()
	runner.on("flatpak update -y org.gimp.GIMP", "", realExitError(t, 1))

	a := &FlatpakAdapter{run: runner.run, look: foundLook}
	items := []PendingItem{{Source: Flatpak, Name: "org.gimp.GIMP"}}

	res, err := a.Apply(context.Background(), items, Options{})
	if err == nil {
		t.Fatal("Apply() should fail when every item fails")
	}
	if res.Succeeded != 0 || res.Failed != 1 {
		t.Errorf("Apply() = %d succeeded / %d failed, want 0/1", res.Succeeded, res.Failed)
	}
}

func TestFlatpakApply_Cancelled(t *testing.T) {
	runner := newFakeRunner()
	a := &FlatpakAdapter{run: runner.run, look: foundLook}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []PendingItem{{Source: Flatpak, Name: "org.gimp.GIMP"}}
	res, err := a.Apply(ctx, items, Options{})
	if err == nil {
		t.Fatal("Apply() should stop on a cancelled context")
	}
	if len(runner.calls) != 0 {
		t.Error("Apply() must not invoke flatpak after cancellation")
	}
	if res == nil {
		t.Fatal("Apply() must return a non-nil result on cancellation")
	}
}

func TestParseFlatpakColumns(t *testing.T) {
	m := parseFlatpakColumns("org.mozilla.firefox 126.0\nversionless.app\n")
	if m["org.mozilla.firefox"] != "126.0" {
		t.Errorf("version = %q, want 126.0", m["org.mozilla.firefox"])
	}
	if v, ok := m["versionless.app"]; !ok || v != "" {
		t.Errorf("versionless entry = %q/%v, want empty string present", v, ok)
	}
}
