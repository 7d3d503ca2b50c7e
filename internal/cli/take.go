package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"quiz-gateway/internal/app"
	"quiz-gateway/internal/config"
	"quiz-gateway/internal/domain"
)

// NewTakeCmd runs a timed quiz session in the terminal. It is the reference
// presentation layer for the session controller: everything it does goes
// through the same controller API the WebSocket transport uses.
func NewTakeCmd(configPath *string) *cobra.Command {
	var quizID int64
	var token string
	var userID int64

	cmd := &cobra.Command{
		Use:   "take",
		Short: "Take a quiz interactively in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			creds := newCredentials(cfg)
			if token != "" {
				if err := creds.SetToken(token); err != nil {
					return err
				}
			}
			if userID > 0 {
				if err := creds.SetUserID(userID); err != nil {
					return err
				}
			}
			catalog := newCatalog(cfg, creds)
			ctx := cmd.Context()
			in := bufio.NewScanner(os.Stdin)

			if quizID <= 0 {
				quizzes, err := catalog.ListQuizzes(ctx)
				if err != nil {
					return err
				}
				if len(quizzes) == 0 {
					fmt.Println("no quizzes available")
					return nil
				}
				for _, quiz := range quizzes {
					fmt.Printf("%4d  %s  %s\n", quiz.ID, quiz.Title, quiz.Description)
				}
				fmt.Print("quiz id: ")
				if !in.Scan() {
					return nil
				}
				quizID, err = strconv.ParseInt(strings.TrimSpace(in.Text()), 10, 64)
				if err != nil || quizID <= 0 {
					return fmt.Errorf("invalid quiz id")
				}
			}

			session := app.NewSession(uuid.NewString(), catalog, creds, quizID, app.SessionConfig{
				Window: config.Duration(cfg.Session.Window, app.DefaultWindow),
			})
			if err := session.Start(ctx); err != nil {
				return err
			}
			defer session.Close()

			for {
				snap := session.Snapshot()
				switch snap.Phase {
				case app.PhaseEmpty:
					fmt.Println("this quiz has no questions")
					return nil
				case app.PhaseFailed:
					return fmt.Errorf("could not load quiz: %s", snap.Error)
				case app.PhaseResult:
					printResult(snap)
					return nil
				case app.PhaseSubmitting:
					time.Sleep(200 * time.Millisecond)
					continue
				}
				if snap.Error != "" {
					fmt.Println("error:", snap.Error)
				}
				printQuestion(snap)

				fmt.Print("> ")
				if !in.Scan() {
					return nil
				}
				line := strings.TrimSpace(in.Text())
				switch {
				case line == "":
				case line == ":n":
					session.Next()
				case line == ":p":
					session.Prev()
				case strings.HasPrefix(line, ":j "):
					index, err := strconv.Atoi(strings.TrimSpace(line[3:]))
					if err != nil {
						fmt.Println("usage: :j <question number>")
						continue
					}
					session.Jump(index - 1)
				case line == ":submit":
					if snap.Answered < len(snap.Questions) && !confirmPartial(in, snap) {
						continue
					}
					_ = session.Submit(ctx)
				case line == ":quit":
					return nil
				default:
					answer(session, snap, strings.ToUpper(line))
				}
			}
		},
	}

	cmd.Flags().Int64Var(&quizID, "quiz", 0, "quiz id (prompts when omitted)")
	cmd.Flags().StringVar(&token, "token", "", "bearer token (overrides the stored one)")
	cmd.Flags().Int64Var(&userID, "user", 0, "numeric user id")
	return cmd
}

func answer(session *app.Session, snap app.Snapshot, label string) {
	question := snap.Questions[snap.Current]
	if len(question.Options) > 0 && !hasOption(question, label) {
		fmt.Printf("no option %q, commands are :n :p :j :submit :quit\n", label)
		return
	}
	if err := session.Answer(question.ID, label); err != nil {
		fmt.Println(err)
		return
	}
	session.Next()
}

func hasOption(question domain.Question, label string) bool {
	for _, option := range question.Options {
		if strings.EqualFold(option.Label, label) {
			return true
		}
	}
	return false
}

// confirmPartial is advisory only: the session submits whatever is in the
// registry regardless of the reply.
func confirmPartial(in *bufio.Scanner, snap app.Snapshot) bool {
	fmt.Printf("%d of %d questions unanswered, submit anyway? [y/N] ",
		len(snap.Questions)-snap.Answered, len(snap.Questions))
	if !in.Scan() {
		return false
	}
	reply := strings.ToLower(strings.TrimSpace(in.Text()))
	return reply == "y" || reply == "yes"
}

func printQuestion(snap app.Snapshot) {
	question := snap.Questions[snap.Current]
	fmt.Printf("\n[%s] question %d/%d, %d answered, %s left\n",
		snap.Quiz.Title, snap.Current+1, len(snap.Questions), snap.Answered, formatClock(snap.Remaining))
	fmt.Println(question.Prompt)
	if len(question.Options) == 0 {
		fmt.Println("  (options unavailable for this question)")
	}
	chosen := snap.Answers[question.ID]
	for _, option := range question.Options {
		marker := " "
		if strings.EqualFold(option.Label, chosen) {
			marker = "*"
		}
		fmt.Printf(" %s %s) %s\n", marker, option.Label, option.Text)
	}
}

func printResult(snap app.Snapshot) {
	if snap.Score == nil {
		fmt.Println("finished, but no score was returned")
		return
	}
	fmt.Printf("\nfinished %q: score %.0f, %d of %d correct (%d answered)\n",
		snap.Quiz.Title, snap.Score.Score, snap.Score.CorrectCount, len(snap.Questions), snap.Answered)
}

func formatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
