package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// sectorBackend is an in-memory versioned sector resource behind an
// httptest server. Every write bumps the version; reads expose it as a
// quoted ETag and conditional writes enforce If-Match.
type sectorBackend struct {
	mu      sync.Mutex
	sector  Sector
	version int
}

func (b *sectorBackend) etag() string {
	return fmt.Sprintf(`"v%d"`, b.version)
}

func (b *sectorBackend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		if r.Header.Get("X-Request-Id") == "" {
			t.Error("Request is missing the X-Request-Id header")
		}

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/parking/sectors/get/"+b.sector.ID:
			w.Header().Set("ETag", b.etag())
			_ = json.NewEncoder(w).Encode(b.sector)

		case r.Method == http.MethodPut && r.URL.Path == "/parking/sectors/"+b.sector.ID:
			if r.Header.Get("If-Match") != fmt.Sprintf("v%d", b.version) {
				w.WriteHeader(http.StatusPreconditionFailed)
				return
			}
			var s Sector
			if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if s.MaxPlaces < 0 {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"messages": []string{"maxPlaces: must not be negative"},
				})
				return
			}
			b.sector = s
			b.version++
			w.Header().Set("ETag", b.etag())
			w.WriteHeader(http.StatusOK)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

// bump simulates a competing writer modifying the sector directly.
func (b *sectorBackend) bump(mutate func(*Sector)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	mutate(&b.sector)
	b.version++
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *SessionStore) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := newTestStore(t)
	return NewClient(srv.URL, store, 5*time.Second), store
}

func TestLoginCredentials(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login-credentials" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["login"] != "jankowalski" || creds["password"] != "P@ssw0rd!" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(TokenPair{AccessToken: "acc", RefreshToken: "ref"})
	}))

	pair, err := client.LoginCredentials(context.Background(), "jankowalski", "P@ssw0rd!")
	if err != nil {
		t.Fatalf("LoginCredentials failed: %v", err)
	}
	if pair.AccessToken != "acc" || pair.RefreshToken != "ref" {
		t.Errorf("Unexpected pair: %+v", pair)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	if _, err := client.LoginCredentials(context.Background(), "jankowalski", "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthorizationHeaderFromStore(t *testing.T) {
	var gotAuth string
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]Reservation{})
	}))

	if err := store.Init(Session{Login: "jankowalski", AccessToken: "the-token", RefreshToken: "r"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := client.ActiveReservations(context.Background()); err != nil {
		t.Fatalf("ActiveReservations failed: %v", err)
	}
	if gotAuth != "Bearer the-token" {
		t.Errorf("Authorization = %q, want Bearer the-token", gotAuth)
	}
}

func TestRefreshSessionOutcomes(t *testing.T) {
	// 1. A rejected refresh token means the credential is gone for good.
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	_, err := client.RefreshSession(context.Background(), "stale")
	var re *RefreshError
	if !errors.As(err, &re) || re.Kind != RefreshInvalid {
		t.Errorf("401: expected RefreshInvalid, got %v", err)
	}

	// 2. A server-side failure is distinguishable from a rejection.
	client, _ = newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	_, err = client.RefreshSession(context.Background(), "r")
	if !errors.As(err, &re) || re.Kind != RefreshServerUnavailable {
		t.Errorf("503: expected RefreshServerUnavailable, got %v", err)
	}

	// 3. A dead endpoint surfaces as a network failure.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	store := newTestStore(t)
	client = NewClient(url, store, time.Second)
	_, err = client.RefreshSession(context.Background(), "r")
	if !errors.As(err, &re) || re.Kind != RefreshNetwork {
		t.Errorf("refused connection: expected RefreshNetwork, got %v", err)
	}
}

func TestRefreshSessionSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refreshToken"] != "old-refresh" {
			t.Errorf("refreshToken = %q, want old-refresh", body["refreshToken"])
		}
		_ = json.NewEncoder(w).Encode(TokenPair{AccessToken: "new-acc", RefreshToken: "new-ref"})
	}))

	pair, err := client.RefreshSession(context.Background(), "old-refresh")
	if err != nil {
		t.Fatalf("RefreshSession failed: %v", err)
	}
	if pair.AccessToken != "new-acc" || pair.RefreshToken != "new-ref" {
		t.Errorf("Unexpected pair: %+v", pair)
	}
}

func TestGetSectorCapturesVersionTag(t *testing.T) {
	backend := &sectorBackend{sector: Sector{ID: "15", Name: "A-1", MaxPlaces: 100}, version: 1}
	client, _ := newTestClient(t, backend.handler(t))

	sector, tag, err := client.GetSector(context.Background(), "15")
	if err != nil {
		t.Fatalf("GetSector failed: %v", err)
	}
	if sector.Name != "A-1" {
		t.Errorf("Name = %q, want A-1", sector.Name)
	}
	// Quotes are transport framing; the tag itself is stored bare.
	if tag != "v1" {
		t.Errorf("Tag = %q, want v1", tag)
	}
}

func TestModifySectorValidationError(t *testing.T) {
	backend := &sectorBackend{sector: Sector{ID: "15", MaxPlaces: 100}, version: 1}
	client, _ := newTestClient(t, backend.handler(t))

	bad := backend.sector
	bad.MaxPlaces = -5
	_, err := client.ModifySector(context.Background(), bad, "v1")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if len(ve.Messages) != 1 || ve.Messages[0] != "maxPlaces: must not be negative" {
		t.Errorf("Messages = %v", ve.Messages)
	}
}

// Scenario: two actors edit the same sector. The slower one must be told
// about the conflict, re-read, and only then succeed with a tag that
// proves its write landed on top of the competitor's.
func TestSectorEditConflictRoundtrip(t *testing.T) {
	backend := &sectorBackend{sector: Sector{ID: "15", Name: "A-1", MaxPlaces: 100}, version: 1}
	client, _ := newTestClient(t, backend.handler(t))
	ctx := context.Background()

	// 1. First actor reads the sector at v1.
	sector, tag, err := client.GetSector(ctx, "15")
	if err != nil {
		t.Fatalf("GetSector failed: %v", err)
	}
	flow := NewEditFlow("sector/15", tag)

	// 2. A second actor modifies the sector in the meantime.
	backend.bump(func(s *Sector) { s.MaxPlaces = 90 })

	// 3. The first actor submits against the stale tag and gets a conflict.
	sector.MaxPlaces = 120
	if err := flow.Stage(sector); err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	_, err = flow.Submit(ctx, func(ctx context.Context, tag string) (string, error) {
		draft, _ := flow.Draft()
		return client.ModifySector(ctx, draft.(Sector), tag)
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}

	// 4. Re-read: the competitor's change is visible, the tag is fresh.
	fresh, freshTag, err := client.GetSector(ctx, "15")
	if err != nil {
		t.Fatalf("Re-read failed: %v", err)
	}
	if fresh.MaxPlaces != 90 {
		t.Errorf("MaxPlaces after re-read = %d, want the competitor's 90", fresh.MaxPlaces)
	}
	if freshTag == tag {
		t.Error("Re-read must surface a fresh tag")
	}
	flow.Reread(freshTag)

	// 5. Re-apply the intent on the fresh copy and submit again.
	fresh.MaxPlaces = 120
	if err := flow.Stage(fresh); err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	newTag, err := flow.Submit(ctx, func(ctx context.Context, tag string) (string, error) {
		draft, _ := flow.Draft()
		return client.ModifySector(ctx, draft.(Sector), tag)
	})
	if err != nil {
		t.Fatalf("Submit after re-read failed: %v", err)
	}
	if newTag == freshTag {
		t.Error("Successful write must assign a new tag")
	}

	// 6. The write really landed.
	final, _, err := client.GetSector(ctx, "15")
	if err != nil {
		t.Fatalf("Final read failed: %v", err)
	}
	if final.MaxPlaces != 120 {
		t.Errorf("MaxPlaces = %d, want 120", final.MaxPlaces)
	}
}

func TestOwnAccountRoundtrip(t *testing.T) {
	version := 3
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/accounts/self":
			w.Header().Set("ETag", fmt.Sprintf(`"v%d"`, version))
			_ = json.NewEncoder(w).Encode(Account{
				Login: "jankowalski",
				Email: "jan@kowalski.pl",
				UserLevels: []UserLevel{
					{ID: "1", RoleName: "CLIENT"},
					{ID: "2", RoleName: "STAFF"},
				},
			})
		case r.Method == http.MethodPut && r.URL.Path == "/accounts/self":
			if r.Header.Get("If-Match") != fmt.Sprintf("v%d", version) {
				w.WriteHeader(http.StatusPreconditionFailed)
				return
			}
			version++
			w.Header().Set("ETag", fmt.Sprintf(`"v%d"`, version))
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	ctx := context.Background()

	acct, tag, err := client.OwnAccount(ctx)
	if err != nil {
		t.Fatalf("OwnAccount failed: %v", err)
	}
	if tag != "v3" {
		t.Errorf("Tag = %q, want v3", tag)
	}
	if len(acct.UserLevels) != 2 || acct.UserLevels[1].RoleName != "STAFF" {
		t.Errorf("Unexpected levels: %+v", acct.UserLevels)
	}

	acct.Email = "jan.kowalski@example.com"
	newTag, err := client.ModifyOwnAccount(ctx, acct, tag)
	if err != nil {
		t.Fatalf("ModifyOwnAccount failed: %v", err)
	}
	if newTag != "v4" {
		t.Errorf("New tag = %q, want v4", newTag)
	}
}

func TestGetSectorNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())
	if _, _, err := client.GetSector(context.Background(), "999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
