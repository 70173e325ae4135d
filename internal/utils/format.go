package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/iancoleman/orderedmap"
)

/**
 * Convert a struct into an ordered map keyed by its JSON names
 * @param {interface{}} v - Struct or pointer to struct
 * @returns {*orderedmap.OrderedMap} Fields in declaration order
 * @returns {error} Marshal errors
 */
func StructToOrderedMap(v interface{}) (*orderedmap.OrderedMap, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	om := orderedmap.New()
	if err := json.Unmarshal(data, om); err != nil {
		return nil, err
	}
	return om, nil
}

// PrintFormat prints rows as a table to stdout, the first row's keys are the header.
func PrintFormat(rows []*orderedmap.OrderedMap) {
	FprintFormat(os.Stdout, rows)
}

func FprintFormat(out io.Writer, rows []*orderedmap.OrderedMap) {
	if len(rows) == 0 {
		return
	}
	keys := rows[0].Keys()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := make([]string, len(keys))
	for i, k := range keys {
		header[i] = strings.ToUpper(k)
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		cells := make([]string, len(keys))
		for i, k := range keys {
			v, ok := row.Get(k)
			cells[i] = cellText(v, ok)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
}

func cellText(v interface{}, ok bool) string {
	if !ok || v == nil {
		return "-"
	}
	if s, isStr := v.(string); isStr {
		if s == "" {
			return "-"
		}
		return s
	}
	return fmt.Sprintf("%v", v)
}
