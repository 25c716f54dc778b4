package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"quizlic"

	"github.com/joho/godotenv"
)

func main() {
	var (
		topics       = flag.String("topics", "", "Comma-separated quiz topics")
		pdfPath      = flag.String("pdf", "", "Generate from a PDF file instead of topics")
		numQuestions = flag.Int("questions", 10, "Number of questions to generate")
		difficulty   = flag.String("difficulty", "medium", "Difficulty level (easy, medium, hard)")
		outputFile   = flag.String("output", "", "Output file for quiz JSON (default: stdout)")
		playMode     = flag.Bool("play", false, "Play the quiz interactively")
		verbose      = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	quizlic.SetVerbose(*verbose)
	if err := godotenv.Load(); err != nil {
		quizlic.VerboseLog("no .env file found, using system env")
	}

	if *topics == "" && *pdfPath == "" {
		log.Fatal("Topics are required. Use -topics or -pdf.")
	}

	diff, err := quizlic.ParseDifficulty(*difficulty)
	if err != nil {
		log.Fatalf("Invalid difficulty: %v", err)
	}
	if err := quizlic.ValidateQuestionCount(*numQuestions); err != nil {
		log.Fatalf("Invalid question count: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var generator quizlic.TextGenerator
	switch {
	case os.Getenv("GEMINI_API_KEY") != "":
		g, err := quizlic.NewGeminiGenerator(ctx, os.Getenv("GEMINI_API_KEY"))
		if err != nil {
			log.Fatalf("Failed to create Gemini generator: %v", err)
		}
		defer g.Close()
		generator = g
	case os.Getenv("OPENAI_API_KEY") != "":
		generator = quizlic.NewOpenAIGenerator(os.Getenv("OPENAI_API_KEY"))
	default:
		log.Fatal("GEMINI_API_KEY or OPENAI_API_KEY environment variable is required.")
	}

	gateway := quizlic.NewGateway(generator)

	var questions []quizlic.Question
	if *pdfPath != "" {
		data, err := os.ReadFile(*pdfPath)
		if err != nil {
			log.Fatalf("Failed to read PDF: %v", err)
		}
		content, err := quizlic.ExtractTextFromPDF(data)
		if err != nil {
			log.Fatalf("Failed to extract PDF text: %v", err)
		}
		if content == "" {
			log.Fatal("The PDF contains no extractable text.")
		}
		questions, err = gateway.GenerateFromContent(ctx, content, *numQuestions, diff)
		if err != nil {
			log.Fatalf("Failed to generate quiz: %v", err)
		}
	} else {
		topicList := quizlic.SplitTopics(*topics)
		if err := quizlic.ValidateTopics(topicList); err != nil {
			log.Fatalf("Invalid topics: %v", err)
		}
		questions, err = gateway.GenerateQuestions(ctx, topicList, *numQuestions, diff)
		if err != nil {
			log.Fatalf("Failed to generate quiz: %v", err)
		}
	}

	if len(questions) == 0 {
		log.Fatal("The generator returned no usable questions. Try again.")
	}

	if *playMode {
		playQuiz(ctx, gateway, questions)
		return
	}

	output, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal quiz: %v", err)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		log.Printf("Quiz saved to: %s", *outputFile)
	} else {
		fmt.Println(string(output))
	}
}

// playQuiz runs the quiz interactively on the terminal, then offers a review
// of every wrong answer.
func playQuiz(ctx context.Context, gateway *quizlic.Gateway, questions []quizlic.Question) {
	session := quizlic.NewQuizSession()
	session.StartQuiz(questions)

	reader := bufio.NewReader(os.Stdin)
	for session.State() == quizlic.StateInProgress {
		q, err := session.CurrentQuestion()
		if err != nil {
			log.Fatalf("Unexpected session state: %v", err)
		}

		fmt.Printf("\nQuestion %d of %d: %s\n", session.CurrentIndex+1, len(session.Questions), q.Text)
		for i, opt := range q.Options {
			fmt.Printf("  %c. %s\n", 'a'+i, opt)
		}

		answer := promptAnswer(reader, q)
		result, err := session.SubmitAnswer(answer)
		if err != nil {
			log.Fatalf("Failed to submit answer: %v", err)
		}
		if result.IsCorrect {
			fmt.Println("Correct!")
		} else {
			fmt.Printf("Wrong. The correct answer was: %s\n", result.CorrectAnswer)
		}
	}

	fmt.Printf("\nFinal score: %d / %d\n", session.Score, len(session.Questions))

	fmt.Print("Review your wrong answers? [y/N] ")
	line, _ := reader.ReadString('\n')
	if strings.TrimSpace(strings.ToLower(line)) != "y" {
		return
	}
	for i, q := range session.Questions {
		if session.UserAnswers[i] == q.CorrectAnswer {
			continue
		}
		explanation := gateway.ExplainAnswer(ctx, q, session.UserAnswers[i])
		fmt.Printf("\n%s\n%s\n", q.Text, explanation)
	}
}

// promptAnswer reads a letter a-d and maps it onto the option value.
func promptAnswer(reader *bufio.Reader, q quizlic.Question) string {
	for {
		fmt.Print("Your answer (a-d): ")
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Fatalf("Failed to read answer: %v", err)
		}
		letter := strings.TrimSpace(strings.ToLower(line))
		if len(letter) == 1 && letter[0] >= 'a' && letter[0] <= 'd' {
			return q.Options[letter[0]-'a']
		}
		fmt.Println("Please enter a, b, c or d.")
	}
}
