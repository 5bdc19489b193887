package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

type IndexStatus string

const (
	IndexCreated IndexStatus = "created"
	IndexExists  IndexStatus = "exists"
	IndexFailed  IndexStatus = "failed"
)

type IndexOutcome struct {
	Index  IndexStatement
	Status IndexStatus
	Err    error
}

// IsAlreadyExists reports whether a CREATE INDEX failure only means the index
// is already there.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	if isMysqlDuplicate(err) || isPostgresDuplicate(err) {
		return true
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "already exists") || strings.Contains(text, "duplicate key")
}

// CreateIndexes runs every statement in order. Failures never stop the batch
// and nothing is rolled back.
func CreateIndexes(ctx context.Context, instance Instance, indexes []IndexStatement) []IndexOutcome {
	outcomes := make([]IndexOutcome, 0, len(indexes))
	for _, index := range indexes {
		Logger.Infof("creating %v", index.Description)
		err := instance.Exec(ctx, index.Statement)
		outcome := IndexOutcome{Index: index, Status: IndexCreated}
		switch {
		case err == nil:
			Logger.Infof("%v created", index.Description)
		case IsAlreadyExists(err):
			outcome.Status = IndexExists
			Logger.Warnf("%v already exists", index.Description)
		default:
			outcome.Status, outcome.Err = IndexFailed, err
			Logger.Errorf("failed to create %v: %v", index.Description, err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func RenderIndexOutcomes(w io.Writer, outcomes []IndexOutcome) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Index", "Status", "Error"})
	for _, outcome := range outcomes {
		message := ""
		if outcome.Err != nil {
			message = outcome.Err.Error()
		}
		table.Append([]string{outcome.Index.Description, string(outcome.Status), message})
	}
	table.Render()
}

func countIndexStatus(outcomes []IndexOutcome, status IndexStatus) int {
	count := 0
	for _, outcome := range outcomes {
		if outcome.Status == status {
			count++
		}
	}
	return count
}

func summarizeIndexes(outcomes []IndexOutcome) string {
	return fmt.Sprintf(
		"%v created, %v existed, %v failed",
		countIndexStatus(outcomes, IndexCreated),
		countIndexStatus(outcomes, IndexExists),
		countIndexStatus(outcomes, IndexFailed),
	)
}
