package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/localplanner/planner"
)

// parameterTable renders every planner parameter, one row per attribute name, sorted by name.
func parameterTable(cfg planner.Config) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode planner config")
	}
	var attrs map[string]interface{}
	if err := json.Unmarshal(data, &attrs); err != nil {
		return "", errors.Wrap(err, "failed to decode planner config")
	}

	names := lo.Keys(attrs)
	sort.Strings(names)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Parameter", "Value"})
	for _, name := range names {
		t.AppendRow(table.Row{name, fmt.Sprintf("%v", attrs[name])})
	}
	return t.Render(), nil
}
