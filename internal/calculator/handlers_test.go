package calculator

import (
	"context"
	"net/http"
	"testing"

	"scicalc/internal/explain"
	"scicalc/internal/history"
	"scicalc/internal/session"
	"scicalc/internal/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type fixedExplainer struct{}

func (fixedExplainer) Explain(_ context.Context, expr, result string) explain.Result {
	return explain.Result{Explanation: expr + " = " + result, Steps: []string{"one step"}, Context: "test"}
}

func newTestRouter(t *testing.T) (http.Handler, *session.Manager) {
	t.Helper()

	m := session.NewManager(session.ManagerConfig{
		Storage:    history.NewMemoryBackend(),
		Explainer:  fixedExplainer{},
		OnEvaluate: RecordEvaluation,
	})
	t.Cleanup(m.Close)

	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(m))
	return r, m
}

func TestEvaluate(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantResult string
		wantError  string
	}{
		{name: "precedence", body: `{"expression":"2+3*4"}`, wantStatus: http.StatusOK, wantResult: "14"},
		{name: "factorial", body: `{"expression":"5!"}`, wantStatus: http.StatusOK, wantResult: "120"},
		{name: "display glyphs", body: `{"expression":"6×7"}`, wantStatus: http.StatusOK, wantResult: "42"},
		{name: "fraction", body: `{"expression":"1/3"}`, wantStatus: http.StatusOK, wantResult: "0.33333333"},
		{name: "division by zero", body: `{"expression":"1/0"}`, wantStatus: http.StatusUnprocessableEntity, wantError: "Error"},
		{name: "domain", body: `{"expression":"sqrt(-1)"}`, wantStatus: http.StatusUnprocessableEntity, wantError: "Error"},
		{name: "syntax", body: `{"expression":"2+"}`, wantStatus: http.StatusUnprocessableEntity, wantError: "Error"},
		{name: "empty", body: `{"expression":"  "}`, wantStatus: http.StatusBadRequest, wantError: "expression is required"},
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest, wantError: "invalid request body"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := testutil.Do(t, router, http.MethodPost, "/calculator/evaluate", tc.body)
			testutil.CheckResponseCode(t, tc.wantStatus, w.Code)

			var body map[string]string
			testutil.DecodeJSONBody(t, w.Body, &body)

			if tc.wantResult != "" && body["result"] != tc.wantResult {
				t.Fatalf("expected result %q, got %q", tc.wantResult, body["result"])
			}
			if tc.wantError != "" && body["error"] != tc.wantError {
				t.Fatalf("expected error %q, got %q", tc.wantError, body["error"])
			}
		})
	}
}

func TestEvaluateReportsNormalizedForm(t *testing.T) {
	router, _ := newTestRouter(t)

	w := testutil.Do(t, router, http.MethodPost, "/calculator/evaluate", `{"expression":"log(E)+3!"}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var body EvaluateResponse
	testutil.DecodeJSONBody(t, w.Body, &body)
	if body.Normalized != "ln(e)+6" {
		t.Fatalf("expected normalized %q, got %q", "ln(e)+6", body.Normalized)
	}
	if body.Result != "7" {
		t.Fatalf("expected result 7, got %q", body.Result)
	}
}

func createSession(t *testing.T, router http.Handler) session.Snapshot {
	t.Helper()

	w := testutil.Do(t, router, http.MethodPost, "/calculator/sessions", "")
	testutil.CheckResponseCode(t, http.StatusCreated, w.Code)

	var snap session.Snapshot
	testutil.DecodeJSONBody(t, w.Body, &snap)
	if _, err := uuid.Parse(snap.ID); err != nil {
		t.Fatalf("expected uuid session id, got %q", snap.ID)
	}
	if loc := w.Header().Get("Location"); loc != "/calculator/sessions/"+snap.ID {
		t.Fatalf("unexpected Location header %q", loc)
	}
	return snap
}

func TestSessionKeysFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createSession(t, router).ID

	w := testutil.Do(t, router, http.MethodPost, "/calculator/sessions/"+id+"/keys", `{"keys":["7","*","8","="]}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var snap session.Snapshot
	testutil.DecodeJSONBody(t, w.Body, &snap)
	if snap.Display != "56" || snap.SubDisplay != "7*8 =" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(snap.History) != 1 {
		t.Fatalf("expected 1 history item, got %d", len(snap.History))
	}

	w = testutil.Do(t, router, http.MethodGet, "/calculator/sessions/"+id, "")
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	testutil.DecodeJSONBody(t, w.Body, &snap)
	if snap.Display != "56" {
		t.Fatalf("expected persisted display 56, got %q", snap.Display)
	}
}

func TestSessionKeysErrors(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createSession(t, router).ID

	w := testutil.Do(t, router, http.MethodPost, "/calculator/sessions/"+id+"/keys", `{"keys":["1","sinh("]}`)
	testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)

	w = testutil.Do(t, router, http.MethodPost, "/calculator/sessions/"+id+"/keys", `{"keys":[]}`)
	testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)

	w = testutil.Do(t, router, http.MethodPost, "/calculator/sessions/"+uuid.NewString()+"/keys", `{"keys":["1"]}`)
	testutil.CheckResponseCode(t, http.StatusNotFound, w.Code)
}

func TestSessionErrorDisplay(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createSession(t, router).ID

	w := testutil.Do(t, router, http.MethodPost, "/calculator/sessions/"+id+"/keys", `{"keys":["1","/","0","="]}`)
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var snap session.Snapshot
	testutil.DecodeJSONBody(t, w.Body, &snap)
	if snap.Display != "Error" || !snap.Error {
		t.Fatalf("expected Error display, got %+v", snap)
	}
}

func TestSessionHistoryEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createSession(t, router).ID
	base := "/calculator/sessions/" + id

	testutil.Do(t, router, http.MethodPost, base+"/keys", `{"keys":["2","+","2","=","AC"]}`)

	w := testutil.Do(t, router, http.MethodGet, base+"/history", "")
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	var hist HistoryResponse
	testutil.DecodeJSONBody(t, w.Body, &hist)
	if len(hist.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(hist.Items))
	}

	w = testutil.Do(t, router, http.MethodPost, base+"/history/"+hist.Items[0].ID+"/select", "")
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	var snap session.Snapshot
	testutil.DecodeJSONBody(t, w.Body, &snap)
	if snap.Display != "2+2" || snap.SubDisplay != "2+2 = 4" {
		t.Fatalf("unexpected snapshot after select %+v", snap)
	}

	w = testutil.Do(t, router, http.MethodPost, base+"/history/nope/select", "")
	testutil.CheckResponseCode(t, http.StatusNotFound, w.Code)

	w = testutil.Do(t, router, http.MethodDelete, base+"/history", "")
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	testutil.DecodeJSONBody(t, w.Body, &snap)
	if len(snap.History) != 0 {
		t.Fatalf("expected cleared history, got %d items", len(snap.History))
	}
}

func TestSessionExplain(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createSession(t, router).ID
	base := "/calculator/sessions/" + id

	w := testutil.Do(t, router, http.MethodPost, base+"/explain", "")
	testutil.CheckResponseCode(t, http.StatusUnprocessableEntity, w.Code)

	testutil.Do(t, router, http.MethodPost, base+"/keys", `{"keys":["9","^","2","="]}`)

	w = testutil.Do(t, router, http.MethodPost, base+"/explain", "")
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)

	var resp ExplainResponse
	testutil.DecodeJSONBody(t, w.Body, &resp)
	if resp.Expression != "9^2" || resp.Result != "81" {
		t.Fatalf("unexpected explained item %+v", resp)
	}
	if resp.Explanation != "9^2 = 81" || len(resp.Steps) != 1 {
		t.Fatalf("unexpected explanation %+v", resp)
	}
}

func TestSessionOpenAndClose(t *testing.T) {
	router, m := newTestRouter(t)
	id := uuid.NewString()
	base := "/calculator/sessions/" + id

	w := testutil.Do(t, router, http.MethodGet, base, "")
	testutil.CheckResponseCode(t, http.StatusNotFound, w.Code)

	w = testutil.Do(t, router, http.MethodPut, base, "")
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	testutil.Do(t, router, http.MethodPost, base+"/keys", `{"keys":["3","!","="]}`)

	w = testutil.Do(t, router, http.MethodDelete, base, "")
	testutil.CheckResponseCode(t, http.StatusNoContent, w.Code)
	if m.Count() != 0 {
		t.Fatalf("expected no live sessions, got %d", m.Count())
	}

	// Reopening restores the persisted history.
	w = testutil.Do(t, router, http.MethodPut, base, "")
	testutil.CheckResponseCode(t, http.StatusOK, w.Code)
	var snap session.Snapshot
	testutil.DecodeJSONBody(t, w.Body, &snap)
	if len(snap.History) != 1 || snap.History[0].Result != "6" {
		t.Fatalf("expected restored history, got %+v", snap.History)
	}

	w = testutil.Do(t, router, http.MethodPut, "/calculator/sessions/not-a-uuid", "")
	testutil.CheckResponseCode(t, http.StatusBadRequest, w.Code)
}
