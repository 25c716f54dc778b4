package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quizlic"
)

const (
	authSessionName = "quizlic-auth"
	quizCookieName  = "quiz_session"

	// The generator gets no timeout of its own; the budget is imposed here,
	// at the call boundary.
	generateTimeout = 2 * time.Minute
	reviewTimeout   = 2 * time.Minute
)

const generationFailedMsg = "Failed to generate questions. Try again."

func (s *Server) currentUser(r *http.Request) (*quizlic.User, bool) {
	session, _ := s.auth.Get(r, authSessionName)
	id, ok := session.Values["user_id"].(int64)
	if !ok {
		return nil, false
	}
	user, err := s.store.GetUser(id)
	if err != nil {
		return nil, false
	}
	return user, true
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (*quizlic.User, bool) {
	user, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, false
	}
	return user, true
}

func (s *Server) loadQuizSession(r *http.Request) *quizlic.QuizSession {
	token := ""
	if cookie, err := r.Cookie(quizCookieName); err == nil {
		token = cookie.Value
	}
	return s.codec.Decode(token)
}

func (s *Server) saveQuizSession(w http.ResponseWriter, session *quizlic.QuizSession) error {
	token, err := s.codec.Encode(session)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     quizCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearQuizSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     quizCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

func (s *Server) renderQuiz(w http.ResponseWriter, user *quizlic.User, session *quizlic.QuizSession, errMsg string) {
	data := map[string]interface{}{
		"User":    user,
		"Session": session,
		"State":   session.State().String(),
		"Error":   errMsg,
	}
	if q, err := session.CurrentQuestion(); err == nil {
		data["CurrentQuestion"] = q
	}

	if err := s.templates["index"].ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Template error in index: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	session := s.loadQuizSession(r)
	if r.URL.Query().Get("action") == "reset" {
		session.Reset()
		if err := s.saveQuizSession(w, session); err != nil {
			log.Printf("Failed to save reset session: %v", err)
		}
	}
	s.renderQuiz(w, user, session, "")
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	// Multipart for file uploads, urlencoded for plain topic forms.
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}
	}

	session := s.loadQuizSession(r)

	numQuestions, err := strconv.Atoi(r.FormValue("num_questions"))
	if err != nil {
		s.renderQuiz(w, user, session, "Number of questions must be a number.")
		return
	}
	if err := quizlic.ValidateQuestionCount(numQuestions); err != nil {
		s.renderQuiz(w, user, session, err.Error())
		return
	}
	difficulty, err := quizlic.ParseDifficulty(r.FormValue("difficulty"))
	if err != nil {
		s.renderQuiz(w, user, session, err.Error())
		return
	}

	inputType := r.FormValue("input_type")
	if inputType == "" {
		inputType = quizlic.InputTypeTopics
	}

	// Resolve the input into either a topic list or extracted content before
	// anything goes near the generator.
	var (
		topics     []string
		content    string
		topicLabel string
	)
	switch inputType {
	case quizlic.InputTypeTopics:
		topics = quizlic.SplitTopics(r.FormValue("topics"))
		if err := quizlic.ValidateTopics(topics); err != nil {
			s.renderQuiz(w, user, session, "Please provide valid topics and a number of questions between 5 and 100.")
			return
		}
		topicLabel = strings.Join(topics, ", ")

	case quizlic.InputTypePDF, quizlic.InputTypeImage:
		file, header, err := r.FormFile("file")
		if err != nil {
			s.renderQuiz(w, user, session, "Please upload a file for this input type.")
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			s.renderQuiz(w, user, session, "Could not read the uploaded file.")
			return
		}

		if inputType == quizlic.InputTypePDF {
			content, err = quizlic.ExtractTextFromPDF(data)
		} else {
			content, err = quizlic.ExtractTextFromImage(data)
		}
		if err != nil {
			log.Printf("Extraction failed for %s: %v", header.Filename, err)
			content = ""
		}
		if content == "" {
			s.renderQuiz(w, user, session, "Could not extract any text from the upload. Try a different file.")
			return
		}
		topicLabel = header.Filename

	default:
		s.renderQuiz(w, user, session, "Unsupported input type.")
		return
	}

	record := &quizlic.QuizRequestRecord{
		UserID:       user.ID,
		InputType:    inputType,
		Topic:        topicLabel,
		NumQuestions: numQuestions,
		Difficulty:   string(difficulty),
	}
	if err := s.store.RecordQuizRequest(record); err != nil {
		log.Printf("Failed to record quiz request: %v", err)
	}

	// A gateway per request so each generation gets its own interaction log,
	// without sharing logger state across concurrent users.
	gateway := quizlic.NewGateway(s.generator)
	logger, err := quizlic.NewLLMLogger(record.ID, quizlic.GenerationRequest{
		InputType:    inputType,
		Topic:        topicLabel,
		NumQuestions: numQuestions,
		Difficulty:   difficulty,
	})
	if err != nil {
		log.Printf("Failed to create LLM logger for request %s: %v", record.ID, err)
	} else {
		gateway.SetLogger(logger)
		defer logger.Close()
	}

	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()

	var questions []quizlic.Question
	if inputType == quizlic.InputTypeTopics {
		questions, err = gateway.GenerateQuestions(ctx, topics, numQuestions, difficulty)
	} else {
		questions, err = gateway.GenerateFromContent(ctx, content, numQuestions, difficulty)
	}
	if err != nil {
		// The session is untouched; no partial quiz is ever installed.
		log.Printf("Generation failed for request %s: %v", record.ID, err)
		s.renderQuiz(w, user, session, generationFailedMsg)
		return
	}
	if len(questions) == 0 {
		s.renderQuiz(w, user, session, generationFailedMsg)
		return
	}

	session.StartQuiz(questions)
	if err := s.saveQuizSession(w, session); err != nil {
		log.Printf("Failed to save quiz session: %v", err)
		session.Reset()
		s.renderQuiz(w, user, session, "Could not save your quiz session. Try again.")
		return
	}
	if err := s.store.IncrementGenerationCount(user.ID); err != nil {
		log.Printf("Failed to increment generation count: %v", err)
	}

	s.renderQuiz(w, user, session, "")
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, ok := s.currentUser(r); !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not logged in"})
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to parse form"})
		return
	}

	session := s.loadQuizSession(r)
	result, err := session.SubmitAnswer(r.FormValue("answer"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No active quiz or quiz completed"})
		return
	}
	if err := s.saveQuizSession(w, session); err != nil {
		log.Printf("Failed to save quiz session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save session"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUser(r); !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not logged in"})
		return
	}
	index, err := strconv.Atoi(r.URL.Query().Get("q"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid question index"})
		return
	}

	session := s.loadQuizSession(r)

	ctx, cancel := context.WithTimeout(r.Context(), reviewTimeout)
	defer cancel()

	explanation, optionExplanations, err := s.reviewer.ReviewQuestion(ctx, session, index)
	if err != nil {
		var stateErr *quizlic.InvalidStateError
		if errors.As(err, &stateErr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": stateErr.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "review failed"})
		return
	}

	userAnswer := quizlic.NoAnswerText
	if index < len(session.UserAnswers) {
		userAnswer = session.UserAnswers[index]
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"question":            session.Questions[index],
		"user_answer":         userAnswer,
		"answer_explanation":  explanation,
		"option_explanations": optionExplanations,
	})
}

func (s *Server) handleReviewAll(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUser(r); !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not logged in"})
		return
	}

	session := s.loadQuizSession(r)
	if session.State() == quizlic.StateEmpty {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no quiz to review"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reviewTimeout)
	defer cancel()

	result := s.reviewer.ReviewAll(ctx, session)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"questions":           session.Questions,
		"user_answers":        session.UserAnswers,
		"score":               session.Score,
		"answer_explanations": result.AnswerExplanations,
		"option_explanations": result.OptionExplanations,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.renderPage(w, "login", nil)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	user, err := s.store.Authenticate(r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		if errors.Is(err, quizlic.ErrInvalidCredentials) {
			s.renderPage(w, "login", map[string]interface{}{"Error": "Invalid username or password."})
			return
		}
		log.Printf("Authentication failed: %v", err)
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}
	s.startAuthSession(w, r, user)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.renderPage(w, "register", nil)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if username == "" || email == "" || password == "" {
		s.renderPage(w, "register", map[string]interface{}{"Error": "Username, email and password are all required."})
		return
	}

	user, err := s.store.RegisterUser(username, email, password)
	if err != nil {
		if errors.Is(err, quizlic.ErrUsernameTaken) {
			s.renderPage(w, "register", map[string]interface{}{"Error": "That username is already taken."})
			return
		}
		log.Printf("Registration failed: %v", err)
		http.Error(w, "Registration failed", http.StatusInternalServerError)
		return
	}
	s.startAuthSession(w, r, user)
}

func (s *Server) startAuthSession(w http.ResponseWriter, r *http.Request, user *quizlic.User) {
	session, _ := s.auth.Get(r, authSessionName)
	session.Values["user_id"] = user.ID
	if err := session.Save(r, w); err != nil {
		log.Printf("Auth session save error: %v", err)
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.auth.Get(r, authSessionName)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		log.Printf("Auth session save error: %v", err)
	}
	s.clearQuizSession(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	entries, err := s.store.Leaderboard(10)
	if err != nil {
		log.Printf("Failed to get leaderboard: %v", err)
		http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
		return
	}
	s.renderPage(w, "leaderboard", map[string]interface{}{
		"User":    user,
		"Entries": entries,
	})
}

func (s *Server) renderPage(w http.ResponseWriter, name string, data interface{}) {
	if err := s.templates[name].ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Template error in %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
