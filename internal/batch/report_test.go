package batch

import (
	"context"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/omr-sheet-mcp/internal/omr"
	"github.com/ironsheep/omr-sheet-mcp/internal/omr/omrtest"
	"github.com/ironsheep/omr-sheet-mcp/internal/source"
)

func TestNewReport(t *testing.T) {
	results := []Result{
		{Name: "a", Reading: &omr.Reading{Result: &omr.SheetResult{Letters: "A"}}},
		{Name: "b", Rejection: &omr.Rejection{Kind: "decode", Message: "bad"}},
	}
	rep := NewReport(results)

	if rep.Total != 2 || rep.Read != 1 || rep.Rejected != 1 {
		t.Errorf("counts: got %+v", rep)
	}
	if rep.Items[0].Result == nil || rep.Items[0].Rejection != nil {
		t.Errorf("item a: got %+v", rep.Items[0])
	}
	if rep.Items[1].Result != nil || rep.Items[1].Rejection.Kind != "decode" {
		t.Errorf("item b: got %+v", rep.Items[1])
	}

	data, err := json.Marshal(rep)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"rejection":{"kind":"decode","message":"bad"}`) {
		t.Errorf("unexpected JSON: %s", data)
	}
}

func TestFromPages_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	f, err := os.Create(good)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, omrtest.NewSheet().Answer(40, 4).Image()); err != nil {
		t.Fatal(err)
	}
	f.Close()

	set := source.OpenAll([]string{good, filepath.Join(dir, "missing.png")}, source.DefaultDPI)
	defer set.Close()

	results, err := NewRunner(newReader(t), 2).Run(context.Background(), FromPages(set.Pages))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	rep := NewReport(results)
	if rep.Read != 1 || rep.Rejected != 1 {
		t.Fatalf("got %d read, %d rejected", rep.Read, rep.Rejected)
	}
	if got := rep.Items[0].Result.Letters; got[39] != 'E' {
		t.Errorf("q40: got %q", got[39])
	}
	if rep.Items[1].Rejection.Kind != omr.KindUnreadable {
		t.Errorf("missing file: got kind %q", rep.Items[1].Rejection.Kind)
	}
}
