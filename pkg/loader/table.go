package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ruleworks/arbiter/pkg/expr"
	"ruleworks/arbiter/pkg/rules"
)

// FromTableFile loads a rule set from a CSV decision table. The rule set
// takes its name from the file's base name.
func FromTableFile(path string) (*rules.RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open decision table %q: %w", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return FromTable(name, f)
}

// FromTable loads a rule set from CSV decision-table data. The first row
// is a header naming the columns; "condition" and "action" are required,
// "name" and "priority" optional. Rows hold complete sandbox expressions:
//
//	name,condition,action,priority
//	high,"fact.get('income', 0) > 100000","{'result': 'High Income'}",10
//	standard,"fact.get('income', 0) <= 100000","{'result': 'Standard'}",5
//
// Error isolation follows FromDocument: a security violation rejects the
// table, other per-row failures drop only that row and are reported via
// *DocumentError.
func FromTable(name string, r io.Reader) (*rules.RuleSet, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("decision table %q has no header row: %w", name, err)
	}
	columns, err := tableColumns(header)
	if err != nil {
		return nil, fmt.Errorf("decision table %q: %w", name, err)
	}

	var (
		loaded   []rules.Rule
		docError = &DocumentError{Document: name}
	)

	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decision table %q row %d: %w", name, row+1, err)
		}

		rd, err := columns.ruleDocument(row, record)
		if err != nil {
			docError.RuleErrors = append(docError.RuleErrors, &RuleError{Rule: fmt.Sprintf("rule_%d", row), Err: err})
			continue
		}

		rule, err := buildRule(row, rd)
		if err != nil {
			var secErr *expr.SecurityError
			if errors.As(err, &secErr) {
				return nil, fmt.Errorf("decision table %q rejected: %w", name, err)
			}
			docError.RuleErrors = append(docError.RuleErrors, &RuleError{Rule: rd.Name, Err: err})
			continue
		}
		loaded = append(loaded, rule)
	}

	rs, err := rules.NewRuleSet(name, loaded, map[string]any{"source": "table"})
	if err != nil {
		return nil, err
	}

	if len(docError.RuleErrors) > 0 {
		return rs, docError
	}
	return rs, nil
}

// tableLayout maps header names to column indices. -1 means absent.
type tableLayout struct {
	name      int
	condition int
	action    int
	priority  int
}

func tableColumns(header []string) (*tableLayout, error) {
	layout := &tableLayout{name: -1, condition: -1, action: -1, priority: -1}
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name":
			layout.name = i
		case "condition":
			layout.condition = i
		case "action":
			layout.action = i
		case "priority":
			layout.priority = i
		}
	}
	if layout.condition < 0 || layout.action < 0 {
		return nil, fmt.Errorf("header must include \"condition\" and \"action\" columns")
	}
	return layout, nil
}

func (l *tableLayout) ruleDocument(row int, record []string) (RuleDocument, error) {
	rd := RuleDocument{Name: fmt.Sprintf("rule_%d", row)}

	if l.condition >= len(record) || l.action >= len(record) {
		return rd, fmt.Errorf("row %d has %d columns, too few", row+1, len(record))
	}
	rd.Condition = strings.TrimSpace(record[l.condition])
	rd.Action = strings.TrimSpace(record[l.action])

	if l.name >= 0 && l.name < len(record) && strings.TrimSpace(record[l.name]) != "" {
		rd.Name = strings.TrimSpace(record[l.name])
	}
	if l.priority >= 0 && l.priority < len(record) && strings.TrimSpace(record[l.priority]) != "" {
		priority, err := strconv.Atoi(strings.TrimSpace(record[l.priority]))
		if err != nil {
			return rd, fmt.Errorf("row %d has non-numeric priority %q", row+1, record[l.priority])
		}
		rd.Priority = priority
	}

	return rd, nil
}
