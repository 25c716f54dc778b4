package quizlic

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.CreateTables(); err != nil {
		t.Fatalf("CreateTables: %v", err)
	}
	return store
}

func TestRegisterAndAuthenticate(t *testing.T) {
	store := newTestStore(t)

	user, err := store.RegisterUser("alice", "alice@example.com", "s3cret")
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if user.ID == 0 {
		t.Error("registered user has no ID")
	}

	got, err := store.Authenticate("alice", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != user.ID || got.Username != "alice" || got.Email != "alice@example.com" {
		t.Errorf("authenticated user = %+v", got)
	}
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.RegisterUser("alice", "alice@example.com", "s3cret"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	if _, err := store.Authenticate("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := store.Authenticate("nobody", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterUserDuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.RegisterUser("alice", "alice@example.com", "s3cret"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if _, err := store.RegisterUser("alice", "other@example.com", "hunter2"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate username: err = %v, want ErrUsernameTaken", err)
	}
}

func TestRecordQuizRequestHistory(t *testing.T) {
	store := newTestStore(t)
	user, err := store.RegisterUser("alice", "alice@example.com", "s3cret")
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	record := &QuizRequestRecord{
		UserID:       user.ID,
		InputType:    InputTypeTopics,
		Topic:        "go, http",
		NumQuestions: 10,
		Difficulty:   string(DifficultyMedium),
	}
	if err := store.RecordQuizRequest(record); err != nil {
		t.Fatalf("RecordQuizRequest: %v", err)
	}
	if record.ID == "" {
		t.Error("record was not assigned an ID")
	}

	records, err := store.GetQuizRequests(user.ID)
	if err != nil {
		t.Fatalf("GetQuizRequests: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Topic != "go, http" || records[0].NumQuestions != 10 {
		t.Errorf("record = %+v", records[0])
	}
}

func TestLeaderboardRanking(t *testing.T) {
	store := newTestStore(t)

	for _, username := range []string{"alice", "bob", "carol"} {
		if _, err := store.RegisterUser(username, username+"@example.com", "pw"); err != nil {
			t.Fatalf("RegisterUser(%s): %v", username, err)
		}
	}
	bob, err := store.Authenticate("bob", "pw")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	carol, err := store.Authenticate("carol", "pw")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.IncrementGenerationCount(bob.ID); err != nil {
			t.Fatalf("IncrementGenerationCount: %v", err)
		}
	}
	if err := store.IncrementGenerationCount(carol.ID); err != nil {
		t.Fatalf("IncrementGenerationCount: %v", err)
	}

	entries, err := store.Leaderboard(10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Username != "bob" || entries[0].GenerationCount != 3 {
		t.Errorf("first entry = %+v, want bob with 3", entries[0])
	}
	if entries[1].Username != "carol" || entries[1].GenerationCount != 1 {
		t.Errorf("second entry = %+v, want carol with 1", entries[1])
	}
	if entries[2].Username != "alice" || entries[2].GenerationCount != 0 {
		t.Errorf("third entry = %+v, want alice with 0", entries[2])
	}
}

func TestLeaderboardLimit(t *testing.T) {
	store := newTestStore(t)
	for _, username := range []string{"a", "b", "c"} {
		if _, err := store.RegisterUser(username, username+"@example.com", "pw"); err != nil {
			t.Fatalf("RegisterUser(%s): %v", username, err)
		}
	}
	entries, err := store.Leaderboard(2)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}
