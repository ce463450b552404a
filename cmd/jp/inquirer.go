package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xonecas/jpcore/internal/convo"
	"github.com/xonecas/jpcore/internal/tool"
)

// CLIInquirer implements tool.Inquirer for an interactive terminal session:
// it prints the question to stdout and reads one line from stdin, coercing
// the answer to the shape the draft's AnswerKind expects.
type CLIInquirer struct {
	reader *bufio.Reader
}

// NewCLIInquirer wraps reader (typically bufio.NewReader(os.Stdin)).
func NewCLIInquirer(reader *bufio.Reader) *CLIInquirer {
	return &CLIInquirer{reader: reader}
}

func (c *CLIInquirer) Ask(_ context.Context, draft tool.InquiryDraft) (any, error) {
	switch draft.AnswerKind {
	case convo.InquiryAnswerBoolean:
		return c.askBoolean(draft)
	case convo.InquiryAnswerSelect:
		return c.askSelect(draft)
	default:
		return c.askText(draft)
	}
}

func (c *CLIInquirer) askBoolean(draft tool.InquiryDraft) (any, error) {
	def, _ := draft.Default.(bool)
	suffix := "y/N"
	if def {
		suffix = "Y/n"
	}
	fmt.Printf("%s [%s] ", draft.QuestionText, suffix)
	line, err := c.readLine()
	if err != nil {
		return def, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return def, nil
	}
}

func (c *CLIInquirer) askSelect(draft tool.InquiryDraft) (any, error) {
	fmt.Println(draft.QuestionText)
	for i, opt := range draft.Options {
		fmt.Printf("  %d) %v\n", i+1, opt)
	}
	fmt.Print("> ")
	line, err := c.readLine()
	if err != nil {
		return draft.Default, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return draft.Default, nil
	}
	if idx, convErr := strconv.Atoi(line); convErr == nil && idx >= 1 && idx <= len(draft.Options) {
		return draft.Options[idx-1], nil
	}
	return draft.Default, nil
}

func (c *CLIInquirer) askText(draft tool.InquiryDraft) (any, error) {
	if current, ok := draft.Default.(string); ok && current != "" {
		fmt.Printf("%s\n(current: %s)\n> ", draft.QuestionText, current)
	} else {
		fmt.Printf("%s\n> ", draft.QuestionText)
	}
	line, err := c.readLine()
	if err != nil {
		return draft.Default, err
	}
	line = strings.TrimRight(line, "\n")
	if line == "" {
		return draft.Default, nil
	}
	return line, nil
}

func (c *CLIInquirer) readLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}
