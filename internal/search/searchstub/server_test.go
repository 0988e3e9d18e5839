package searchstub

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"blastfasta/internal/search/httpsearch"
)

func TestServer_RunStatusResult(t *testing.T) {
	srv := httptest.NewServer(New(Options{}))
	defer srv.Close()

	resp, err := http.PostForm(srv.URL+"/run", url.Values{"sequence": {"MKTAYIAK"}, "database": {"uniref90"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	idb, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	id := string(idb)
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(id, "stub-") {
		t.Fatalf("run status=%d id=%q", resp.StatusCode, id)
	}

	st := get(t, srv.URL+"/status/"+id)
	if st != httpsearch.StatusFinished {
		t.Fatalf("status=%q", st)
	}

	var wr httpsearch.WireResult
	if err := json.Unmarshal([]byte(get(t, srv.URL+"/result/"+id+"/json")), &wr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(wr.Hits) != 1 || wr.Hits[0].Accession != "UNIREF90_STUBMKTAYIAK" {
		t.Fatalf("hits=%+v", wr.Hits)
	}
}

func TestServer_UnknownJobAndBadRun(t *testing.T) {
	s := New(Options{})
	srv := httptest.NewServer(s)
	defer srv.Close()

	if st := get(t, srv.URL+"/status/nope"); st != httpsearch.StatusNotFound {
		t.Fatalf("status=%q", st)
	}
	resp, err := http.PostForm(srv.URL+"/run", url.Values{"database": {"uniref90"}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("code=%d", resp.StatusCode)
	}
	if s.Jobs() != 0 {
		t.Fatalf("jobs=%d", s.Jobs())
	}
}

func get(t *testing.T, u string) string {
	t.Helper()
	resp, err := http.Get(u)
	if err != nil {
		t.Fatalf("get %s: %v", u, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}
