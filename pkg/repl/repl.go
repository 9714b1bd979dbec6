// Package repl implements the interactive menu loop over a survey analyzer.
// Errors from the analyzer are printed and the loop continues; only "exit"
// leaves it.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/duynguyendang/airdata/pkg/survey"
)

// Run starts the interactive menu against one analyzer, reading from in and
// writing to out.
func Run(a *survey.Analyzer, in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "\n--- Survey Analyzer ---")

	if structure, err := a.SurveyStructure(survey.StructureOptions{}); err == nil {
		fmt.Fprintf(out, "Questions: %d\n", structure.Len())
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintln(out, "\nAvailable Commands:")
		fmt.Fprintln(out, "1. Display survey structure")
		fmt.Fprintln(out, "2. Search questions")
		fmt.Fprintln(out, "3. Get respondent subset")
		fmt.Fprintln(out, "4. Show answer distribution")
		fmt.Fprintln(out, "5. Exit")

		choice, ok := prompt(scanner, out, "Enter your choice (1-5)")
		if !ok {
			return
		}

		if err := Dispatch(a, scanner, out, choice); err != nil {
			if err == errExit {
				fmt.Fprintln(out, "Goodbye!")
				return
			}
			// Display and keep going; the schema is immutable, so a
			// failed query leaves nothing to clean up.
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

var errExit = fmt.Errorf("exit")

// Dispatch runs one menu command. It returns errExit when the user chose to
// leave.
func Dispatch(a *survey.Analyzer, scanner *bufio.Scanner, out io.Writer, choice string) error {
	switch strings.TrimSpace(choice) {
	case "1":
		return showStructure(a, scanner, out)
	case "2":
		return searchQuestions(a, scanner, out)
	case "3":
		return respondentSubset(a, scanner, out)
	case "4":
		return answerDistribution(a, scanner, out)
	case "5", "exit", "quit":
		return errExit
	default:
		fmt.Fprintln(out, "Please enter a number between 1 and 5.")
		return nil
	}
}

func showStructure(a *survey.Analyzer, scanner *bufio.Scanner, out io.Writer) error {
	sortBy, ok := prompt(scanner, out, "Sort by (empty for question_id)")
	if !ok {
		return errExit
	}

	structure, err := a.SurveyStructure(survey.StructureOptions{SortBy: strings.TrimSpace(sortBy)})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\nSurvey Structure")
	renderTable(out, structure, 0)
	return nil
}

func searchQuestions(a *survey.Analyzer, scanner *bufio.Scanner, out io.Writer) error {
	term, ok := prompt(scanner, out, "Enter search term")
	if !ok {
		return errExit
	}

	results, err := a.SearchQuestions(survey.SearchOptions{Term: term})
	if err != nil {
		return err
	}
	if results.Empty() {
		fmt.Fprintf(out, "No results found for %q\n", term)
		return nil
	}

	fmt.Fprintf(out, "\nSearch Results for %q\n", term)
	renderTable(out, results, 0)
	return nil
}

func respondentSubset(a *survey.Analyzer, scanner *bufio.Scanner, out io.Writer) error {
	column, ok := prompt(scanner, out, "Enter question column name")
	if !ok {
		return errExit
	}
	option, ok := prompt(scanner, out, "Enter answer option")
	if !ok {
		return errExit
	}

	subset, err := a.RespondentSubset(survey.SubsetOptions{Column: column, Option: option})
	if err != nil {
		return err
	}
	if subset.Empty() {
		fmt.Fprintf(out, "No respondents found for %s = %q\n", column, option)
		return nil
	}

	fmt.Fprintf(out, "\nRespondents who answered %q for %s\n", option, column)
	fmt.Fprintf(out, "Total: %d respondents\n", subset.Len())
	renderTable(out, subset, subsetDisplayLimit)
	return nil
}

func answerDistribution(a *survey.Analyzer, scanner *bufio.Scanner, out io.Writer) error {
	column, ok := prompt(scanner, out, "Enter question column name")
	if !ok {
		return errExit
	}

	distribution, err := a.AnswerDistribution(survey.DistributionOptions{Column: column})
	if err != nil {
		return err
	}
	if distribution.Empty() {
		fmt.Fprintf(out, "No distribution data found for %q\n", column)
		return nil
	}

	fmt.Fprintf(out, "\nAnswer Distribution for %s (%s)\n", column, questionType(distribution))
	renderDistribution(out, distribution)
	return nil
}

// questionType pulls the type column off the first distribution row.
func questionType(t *survey.Table) string {
	idx := t.ColumnIndex("type")
	if idx < 0 || t.Empty() {
		return "Unknown"
	}
	return fmt.Sprintf("%v", t.Rows[0][idx])
}

// prompt reads one line. ok is false when input is exhausted.
func prompt(scanner *bufio.Scanner, out io.Writer, label string) (string, bool) {
	fmt.Fprintf(out, "%s > ", label)
	if !scanner.Scan() {
		return "", false
	}
	return scanner.Text(), true
}
