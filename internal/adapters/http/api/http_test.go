package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/plotcrowd/fairval/internal/adapters/http/api"
	"github.com/plotcrowd/fairval/internal/domain/model"
	"github.com/plotcrowd/fairval/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func int64p(v int64) *int64 { return &v }

// mockDeps implements api.Dependencies for handler tests.
type mockDeps struct {
	mu         sync.Mutex
	seen       map[string]struct{}
	enqueued   []model.Submission
	full       bool
	properties map[string]bool
	valuations map[string]model.FMVResult
	karma      map[string]types.KarmaStatus
	entries    []api.Entry
}

func newMockDeps() *mockDeps {
	return &mockDeps{
		seen:       make(map[string]struct{}),
		properties: make(map[string]bool),
		valuations: make(map[string]model.FMVResult),
		karma:      make(map[string]types.KarmaStatus),
	}
}

func (m *mockDeps) SeenAndRecord(_ context.Context, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[id]; ok {
		return true
	}
	m.seen[id] = struct{}{}
	return false
}

func (m *mockDeps) Unrecord(_ context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, id)
}

func (m *mockDeps) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.seen))
}

func (m *mockDeps) Enqueue(_ context.Context, s model.Submission) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full {
		return false
	}
	m.enqueued = append(m.enqueued, s)
	return true
}

func (m *mockDeps) UpsertProperty(_ context.Context, propertyID string, _, _ *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.properties[propertyID] = true
	return nil
}

func (m *mockDeps) Valuation(_ context.Context, propertyID string) (model.FMVResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.valuations[propertyID]; ok {
		return v, nil
	}
	return model.FMVResult{}, api.Wrap("mock", errUnknownProperty)
}

func (m *mockDeps) Karma(_ context.Context, userID string) (types.KarmaStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k, ok := m.karma[userID]; ok {
		return k, nil
	}
	return types.KarmaStatus{UserID: userID, Title: "Nieuwkomer", Level: 1}, nil
}

func (m *mockDeps) TopN(_ context.Context, n int) ([]api.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > len(m.entries) {
		n = len(m.entries)
	}
	return m.entries[:n], nil
}

func (m *mockDeps) lastEnqueued() (model.Submission, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.enqueued) == 0 {
		return model.Submission{}, false
	}
	return m.enqueued[len(m.enqueued)-1], true
}

var errUnknownProperty = unknownPropertyError{}

type unknownPropertyError struct{}

func (unknownPropertyError) Error() string { return "unknown property" }

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"queue_size": 0}
}

func newTestServer(deps *mockDeps) *httptest.Server {
	mux := http.NewServeMux()
	srv := api.NewServer(deps, mockStats{}, 100)
	srv.Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestPostGuess(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newMockDeps()
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When a valid guess is posted", func() {
			resp := postJSON(t, ts.URL+"/guesses", map[string]any{
				"guess_id":      "g1",
				"property_id":   "p1",
				"user_id":       "alice",
				"guessed_price": 380000,
			})
			defer resp.Body.Close()

			Convey("Then it is accepted and enqueued", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				sub, ok := deps.lastEnqueued()
				So(ok, ShouldBeTrue)
				So(sub.Kind, ShouldEqual, model.SubmissionGuess)
				So(sub.PropertyID, ShouldEqual, "p1")
				So(sub.Price, ShouldEqual, 380000)
			})

			Convey("And reposting the same id reports a duplicate", func() {
				dup := postJSON(t, ts.URL+"/guesses", map[string]any{
					"guess_id":      "g1",
					"property_id":   "p1",
					"user_id":       "alice",
					"guessed_price": 380000,
				})
				defer dup.Body.Close()
				So(dup.StatusCode, ShouldEqual, http.StatusOK)

				var ack struct {
					Duplicate bool `json:"duplicate"`
				}
				So(json.NewDecoder(dup.Body).Decode(&ack), ShouldBeNil)
				So(ack.Duplicate, ShouldBeTrue)
			})
		})

		Convey("When the guess id is omitted", func() {
			resp := postJSON(t, ts.URL+"/guesses", map[string]any{
				"property_id":   "p1",
				"user_id":       "alice",
				"guessed_price": 380000,
			})
			defer resp.Body.Close()

			Convey("Then one is generated and the guess accepted", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				sub, ok := deps.lastEnqueued()
				So(ok, ShouldBeTrue)
				So(sub.ID, ShouldNotBeEmpty)
			})
		})

		Convey("When required fields are missing", func() {
			resp := postJSON(t, ts.URL+"/guesses", map[string]any{
				"guess_id": "g2",
				"user_id":  "alice",
			})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the price is not positive", func() {
			resp := postJSON(t, ts.URL+"/guesses", map[string]any{
				"guess_id":      "g3",
				"property_id":   "p1",
				"user_id":       "alice",
				"guessed_price": -5,
			})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the queue is full", func() {
			deps.full = true
			resp := postJSON(t, ts.URL+"/guesses", map[string]any{
				"guess_id":      "g4",
				"property_id":   "p1",
				"user_id":       "alice",
				"guessed_price": 380000,
			})
			defer resp.Body.Close()

			Convey("Then the submission is rejected with backpressure", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusTooManyRequests)
			})

			Convey("And the id can be retried later", func() {
				deps.full = false
				retry := postJSON(t, ts.URL+"/guesses", map[string]any{
					"guess_id":      "g4",
					"property_id":   "p1",
					"user_id":       "alice",
					"guessed_price": 380000,
				})
				defer retry.Body.Close()
				So(retry.StatusCode, ShouldEqual, http.StatusAccepted)
			})
		})
	})
}

func TestPostSale(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newMockDeps()
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When a valid sale is posted", func() {
			resp := postJSON(t, ts.URL+"/sales", map[string]any{
				"sale_id":     "s1",
				"property_id": "p1",
				"sale_price":  400000,
			})
			defer resp.Body.Close()

			Convey("Then it is accepted as a sale submission", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				sub, ok := deps.lastEnqueued()
				So(ok, ShouldBeTrue)
				So(sub.Kind, ShouldEqual, model.SubmissionSale)
				So(sub.UserID, ShouldBeEmpty)
			})
		})

		Convey("When the sale price is missing", func() {
			resp := postJSON(t, ts.URL+"/sales", map[string]any{
				"sale_id":     "s2",
				"property_id": "p1",
			})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestGetValuation(t *testing.T) {
	Convey("Given a known property valuation", t, func() {
		deps := newMockDeps()
		deps.valuations["p1"] = model.FMVResult{
			FMV:               int64p(398500),
			Confidence:        model.ConfidenceLow,
			GuessCount:        1,
			OfficialValue:     int64p(400000),
			AskingPrice:       int64p(350000),
			DivergencePercent: nil,
		}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When the valuation is fetched", func() {
			resp, err := http.Get(ts.URL + "/properties/p1/valuation")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the wire shape uses the documented field names", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body map[string]any
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body["fmv"], ShouldEqual, 398500)
				So(body["confidence"], ShouldEqual, "low")
				So(body["guessCount"], ShouldEqual, 1)
				So(body["officialValue"], ShouldEqual, 400000)
				So(body, ShouldContainKey, "divergencePercent")
				So(body["divergencePercent"], ShouldBeNil)
			})
		})

		Convey("When an unknown property is fetched", func() {
			resp, err := http.Get(ts.URL + "/properties/p-missing/valuation")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the path is malformed", func() {
			resp, err := http.Get(ts.URL + "/properties/p1/other")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestGetKarma(t *testing.T) {
	Convey("Given a ranked user", t, func() {
		deps := newMockDeps()
		deps.karma["alice"] = types.KarmaStatus{
			UserID: "alice",
			Karma:  120,
			Rank:   1,
			Title:  "Wijkexpert",
			Level:  4,
			Badge:  model.KarmaRank{Title: "Scout", Level: 2},
		}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When their karma is fetched", func() {
			resp, err := http.Get(ts.URL + "/users/alice/karma")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the rank and badge are returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var status types.KarmaStatus
				So(json.NewDecoder(resp.Body).Decode(&status), ShouldBeNil)
				So(status.Karma, ShouldEqual, 120)
				So(status.Title, ShouldEqual, "Wijkexpert")
				So(status.Badge.Title, ShouldEqual, "Scout")
			})
		})

		Convey("When an unknown user is fetched", func() {
			resp, err := http.Get(ts.URL + "/users/nobody/karma")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then a zero-karma default is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var status types.KarmaStatus
				So(json.NewDecoder(resp.Body).Decode(&status), ShouldBeNil)
				So(status.Karma, ShouldEqual, 0)
				So(status.Title, ShouldEqual, "Nieuwkomer")
			})
		})
	})
}

func TestGetLeaderboard(t *testing.T) {
	Convey("Given a populated leaderboard", t, func() {
		deps := newMockDeps()
		deps.entries = []api.Entry{
			{Rank: 1, UserID: "alice", Karma: 120, Title: "Wijkexpert", Level: 4},
			{Rank: 2, UserID: "bob", Karma: 60, Title: "Buurtkenner", Level: 3},
		}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When the top entries are fetched", func() {
			resp, err := http.Get(ts.URL + "/leaderboard?limit=2")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then they arrive in rank order", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var entries []api.Entry
				So(json.NewDecoder(resp.Body).Decode(&entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].UserID, ShouldEqual, "alice")
			})
		})

		Convey("When the limit is missing or invalid", func() {
			for _, q := range []string{"", "?limit=0", "?limit=abc"} {
				resp, err := http.Get(ts.URL + "/leaderboard" + q)
				So(err, ShouldBeNil)
				resp.Body.Close()
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the limit exceeds the maximum", func() {
			resp, err := http.Get(ts.URL + "/leaderboard?limit=5000")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestPutProperty(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newMockDeps()
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When a property is registered", func() {
			resp := postJSON(t, ts.URL+"/properties", map[string]any{
				"property_id":    "p1",
				"official_value": 400000,
				"asking_price":   350000,
			})
			defer resp.Body.Close()

			Convey("Then the registration lands in the store", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(deps.properties["p1"], ShouldBeTrue)
			})
		})

		Convey("When the property id is missing", func() {
			resp := postJSON(t, ts.URL+"/properties", map[string]any{
				"official_value": 400000,
			})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a reference price is not positive", func() {
			resp := postJSON(t, ts.URL+"/properties", map[string]any{
				"property_id":    "p1",
				"official_value": -1,
			})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newMockDeps()
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When stats are fetched", func() {
			resp, err := http.Get(ts.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the provider's view is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var stats map[string]any
				So(json.NewDecoder(resp.Body).Decode(&stats), ShouldBeNil)
				So(stats, ShouldContainKey, "queue_size")
			})
		})
	})
}
