package main

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// lineSource loads the lines of a stored homework assignment.
type lineSource interface {
	Lines(ctx context.Context, assignment string) ([]string, error)
}

// bigQuerySource reads assignments from a table with the columns
// (assignment STRING, line_no INT64, line STRING).
type bigQuerySource struct {
	project  string
	dataset  string
	table    string
	location string
}

func newBigQuerySource(cfg config) *bigQuerySource {
	return &bigQuerySource{
		project:  cfg.Project,
		dataset:  cfg.Dataset,
		table:    cfg.Table,
		location: cfg.Location,
	}
}

func (s *bigQuerySource) query() string {
	return fmt.Sprintf("SELECT line FROM `%s.%s.%s` WHERE assignment = @assignment ORDER BY line_no", s.project, s.dataset, s.table)
}

func (s *bigQuerySource) Lines(ctx context.Context, assignment string) ([]string, error) {
	client, err := bigquery.NewClient(ctx, s.project)
	if err != nil {
		return nil, fmt.Errorf("bigquery.NewClient: %w", err)
	}
	defer client.Close()

	q := client.Query(s.query())
	q.Location = s.location
	q.Parameters = []bigquery.QueryParameter{
		{Name: "assignment", Value: assignment},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("q.Run: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("job.Wait: %w", err)
	}
	if err := status.Err(); err != nil {
		return nil, fmt.Errorf("status.Err: %w", err)
	}
	it, err := job.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("job.Read: %w", err)
	}

	var lines []string
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("it.Next: %w", err)
		}

		line, ok := row[0].(string)
		if !ok {
			return nil, fmt.Errorf("row[0] is not a string: %v", row[0])
		}
		lines = append(lines, line)
	}
	return lines, nil
}
