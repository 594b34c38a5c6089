package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const sampleCSV = "NIM,Nama,Kelas,ASPRAK\n" +
	"1301230001,Alice Wijaya,IF-48-01,ALC\n" +
	"1301230002,Budi Santoso,IF-48-02,BDS\n" +
	"1301230003,Citra Lestari,IF-48-01,CTL\n" +
	",,,\n"

// newService wires a Service against a fake sheet export server and a
// temporary sources file.
func newService(t *testing.T, csv string) (*Service, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sheet/export" {
			t.Errorf("path = %q, want /sheet/export", r.URL.Path)
		}
		if got := r.URL.Query().Get("format"); got != "csv" {
			t.Errorf("format = %q, want csv", got)
		}
		fmt.Fprint(w, csv)
	}))
	t.Cleanup(srv.Close)

	sources := map[string]string{"algo": srv.URL + "/sheet/edit?usp=sharing"}
	raw, _ := json.Marshal(sources)
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write sources: %v", err)
	}

	return New(path), srv
}

func TestSourcesListsIDs(t *testing.T) {
	svc, _ := newService(t, sampleCSV)
	ids, err := svc.Sources()
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"algo"}) {
		t.Fatalf("ids = %v", ids)
	}
}

func TestFetchParsesSheetExport(t *testing.T) {
	svc, _ := newService(t, sampleCSV)

	rows, err := svc.Fetch(context.Background(), "algo")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (empty line dropped)", len(rows))
	}
	if !reflect.DeepEqual(rows[0].Keys(), []string{"NIM", "Nama", "Kelas", "ASPRAK"}) {
		t.Fatalf("keys = %v", rows[0].Keys())
	}
	if got := rows[1].Value("Nama"); got != "Budi Santoso" {
		t.Fatalf("row 2 Nama = %q", got)
	}
	if got := Classes(rows); !reflect.DeepEqual(got, []string{"IF-48-01", "IF-48-02"}) {
		t.Fatalf("classes = %v", got)
	}
}

func TestFetchUnknownSheet(t *testing.T) {
	svc, _ := newService(t, sampleCSV)
	if _, err := svc.Fetch(context.Background(), "nope"); err != ErrUnknownSheet {
		t.Fatalf("err = %v, want ErrUnknownSheet", err)
	}
}

func TestFetchRejectsHTMLResponse(t *testing.T) {
	svc, _ := newService(t, `<HTML><body>Sign in required</body></HTML>`)
	if _, err := svc.Fetch(context.Background(), "algo"); err == nil {
		t.Fatal("expected an error for an HTML sign-in page")
	}
}

func TestAssignFiltersClassAndNumbersSeats(t *testing.T) {
	svc, _ := newService(t, sampleCSV)
	rows, err := svc.Fetch(context.Background(), "algo")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	rng := rand.New(rand.NewPCG(7, 7))
	seats := Assign(rows, "IF-48-01", rng)

	if len(seats) != 2 {
		t.Fatalf("got %d seats, want 2", len(seats))
	}
	for i, s := range seats {
		if s.Seat != i+1 {
			t.Fatalf("seat %d numbered %d", i, s.Seat)
		}
		if Class(s.Student) != "IF-48-01" {
			t.Fatalf("seat %d holds a student from %q", i, Class(s.Student))
		}
	}
}

func TestAssignIsReproducibleWithSeed(t *testing.T) {
	svc, _ := newService(t, sampleCSV)
	rows, err := svc.Fetch(context.Background(), "algo")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	a := Assign(rows, "", rand.New(rand.NewPCG(42, 42)))
	b := Assign(rows, "", rand.New(rand.NewPCG(42, 42)))
	for i := range a {
		if a[i].Student != b[i].Student {
			t.Fatal("same seed must produce the same seating")
		}
	}
}

func TestHandlerListAndNotFound(t *testing.T) {
	svc, _ := newService(t, sampleCSV)
	h := NewHandler(svc)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/sheets", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var resp struct {
		Sheets []string `json:"sheets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || len(resp.Sheets) != 1 {
		t.Fatalf("list body = %s", rec.Body)
	}
}
