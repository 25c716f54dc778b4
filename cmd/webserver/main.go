package main

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"os"

	"quizlic"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
)

// Server wires the quiz pipeline to the HTTP surface. Quiz state travels in
// a signed token cookie; only the login identity lives in a gorilla session.
type Server struct {
	store     *quizlic.Store
	generator quizlic.TextGenerator
	reviewer  *quizlic.ReviewOrchestrator
	codec     *quizlic.SessionCodec
	auth      *sessions.CookieStore
	templates map[string]*template.Template
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	quizlic.SetVerbose(os.Getenv("QUIZLIC_VERBOSE") != "")

	// Pick the generator backend from whichever API key is configured.
	var generator quizlic.TextGenerator
	switch {
	case os.Getenv("GEMINI_API_KEY") != "":
		g, err := quizlic.NewGeminiGenerator(context.Background(), os.Getenv("GEMINI_API_KEY"))
		if err != nil {
			log.Fatalf("Failed to create Gemini generator: %v", err)
		}
		defer g.Close()
		generator = g
	case os.Getenv("OPENAI_API_KEY") != "":
		generator = quizlic.NewOpenAIGenerator(os.Getenv("OPENAI_API_KEY"))
	default:
		log.Fatal("GEMINI_API_KEY or OPENAI_API_KEY environment variable is required")
	}

	dbPath := os.Getenv("QUIZLIC_DB")
	if dbPath == "" {
		dbPath = "./quizlic.db"
	}
	store, err := quizlic.OpenStore(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()
	if err := store.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	hashKey := keyFromEnv("SESSION_HASH_KEY", 64)
	blockKey := keyFromEnv("SESSION_BLOCK_KEY", 32)

	server := &Server{
		store:     store,
		generator: generator,
		reviewer:  quizlic.NewReviewOrchestrator(quizlic.NewGateway(generator)),
		codec:     quizlic.NewSessionCodec(hashKey, blockKey),
		auth:      sessions.NewCookieStore(hashKey),
		templates: loadTemplates(),
	}

	http.HandleFunc("/", server.handleHome)
	http.HandleFunc("/generate", server.handleGenerate)
	http.HandleFunc("/submit_answer", server.handleSubmitAnswer)
	http.HandleFunc("/review", server.handleReview)
	http.HandleFunc("/review/all", server.handleReviewAll)
	http.HandleFunc("/login", server.handleLogin)
	http.HandleFunc("/register", server.handleRegister)
	http.HandleFunc("/logout", server.handleLogout)
	http.HandleFunc("/leaderboard", server.handleLeaderboard)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8180"
	}

	log.Printf("Starting server on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}

// keyFromEnv reads a key from the environment or generates an ephemeral one.
// Generated keys do not survive restarts, so live sessions drop; fine for
// development, set real keys in production.
func keyFromEnv(name string, length int) []byte {
	if v := os.Getenv(name); v != "" {
		return []byte(v)
	}
	log.Printf("%s not set, using an ephemeral key; sessions will not survive restarts", name)
	return securecookie.GenerateRandomKey(length)
}

func loadTemplates() map[string]*template.Template {
	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
	}

	templateFiles := []struct {
		name string
		file string
	}{
		{"index", "templates/index.html"},
		{"login", "templates/login.html"},
		{"register", "templates/register.html"},
		{"leaderboard", "templates/leaderboard.html"},
	}

	templates := make(map[string]*template.Template)
	for _, tmpl := range templateFiles {
		templates[tmpl.name] = template.Must(template.New(tmpl.name).Funcs(funcMap).ParseFiles("templates/base.html", tmpl.file))
	}
	return templates
}
