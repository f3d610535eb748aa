package deepdiff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// palette holds the colors used to render reports. colors are disabled
// unless the output is a color TTY
type palette struct {
	neutral, insert, delete, update, typeChange *color.Color
}

func newPalette(colorTTY bool) *palette {
	p := &palette{
		neutral:    color.New(color.FgWhite),
		insert:     color.New(color.FgGreen),
		delete:     color.New(color.FgRed),
		update:     color.New(color.FgBlue),
		typeChange: color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.neutral, p.insert, p.delete, p.update, p.typeChange} {
		if colorTTY {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// FormatPrettyString is a convenice wrapper that outputs to a string instead of
// an io.Writer
func FormatPrettyString(r *Report, colorTTY bool) (string, error) {
	buf := &bytes.Buffer{}
	if err := FormatPretty(buf, r, colorTTY); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatPretty writes a text report to w, one line per change. if colorTTY
// is true it will add
// green "+" for additions
// red "-" for removals
// blue "~" for changed values & repetitions
// yellow "!" for type changes
func FormatPretty(w io.Writer, r *Report, colorTTY bool) error {
	p := newPalette(colorTTY)

	for _, c := range r.All() {
		var line string
		switch c.Category {
		case DictItemAdded, IterableItemAdded, SetItemAdded:
			val, err := formatValue(c.Value)
			if err != nil {
				return err
			}
			line = p.insert.Sprintf("+ %s: %s", c.Path, val)
		case DictItemRemoved, IterableItemRemoved, SetItemRemoved:
			val, err := formatValue(c.Value)
			if err != nil {
				return err
			}
			line = p.delete.Sprintf("- %s: %s", c.Path, val)
		case ValuesChanged:
			old, err := formatValue(c.OldValue)
			if err != nil {
				return err
			}
			val, err := formatValue(c.NewValue)
			if err != nil {
				return err
			}
			line = p.update.Sprintf("~ %s: %s -> %s", c.Path, old, val)
			if c.Diff != "" {
				line += "\n" + indentLines(c.Diff, "    ")
			}
		case TypeChanges:
			old, err := formatValue(c.OldValue)
			if err != nil {
				return err
			}
			val, err := formatValue(c.NewValue)
			if err != nil {
				return err
			}
			line = p.typeChange.Sprintf("! %s: %s %s -> %s %s", c.Path, c.OldType, old, c.NewType, val)
		case RepetitionChange:
			val, err := formatValue(c.Value)
			if err != nil {
				return err
			}
			line = p.update.Sprintf("~ %s: %s repeated %d -> %d times", c.Path, val, c.OldRepeat, c.NewRepeat)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatValue(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func indentLines(s, indent string) string {
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = indent + l
	}
	return strings.Join(lines, "\n")
}

// FormatPrettyStats prints a string of stats info
func FormatPrettyStats(diffStat *Stats) string {
	return FormatPrettyStatsString(diffStat, false)
}

// FormatPrettyStatsColor prints a string of stats info with ANSI colors
func FormatPrettyStatsColor(diffStat *Stats) string {
	return FormatPrettyStatsString(diffStat, true)
}

// FormatPrettyStatsString prints a string of stats info, optionally colored
func FormatPrettyStatsString(ds *Stats, colorTTY bool) string {
	if ds == nil {
		return ""
	}
	p := newPalette(colorTTY)
	buf := &bytes.Buffer{}

	elsColor := p.insert
	change := ds.NodeChange()
	elementsWord := "elements"
	sign := "+"
	if change < 0 {
		elsColor = p.delete
		sign = ""
	} else if change == 0 {
		elsColor = p.neutral
		sign = ""
	}
	if change == 1 || change == -1 {
		elementsWord = "element"
	}

	buf.WriteString(elsColor.Sprintf("%s%d", sign, change))
	buf.WriteString(p.neutral.Sprintf(" %s.", elementsWord))
	buf.WriteString(p.insert.Sprintf(" %d %s.", ds.Inserts, plural(ds.Inserts, "insert")))
	buf.WriteString(p.delete.Sprintf(" %d %s.", ds.Deletes, plural(ds.Deletes, "delete")))
	buf.WriteString(p.update.Sprintf(" %d %s.", ds.Updates, plural(ds.Updates, "update")))

	if ds.TypeChanges > 0 {
		buf.WriteString(p.typeChange.Sprintf(" %d %s.", ds.TypeChanges, plural(ds.TypeChanges, "type change")))
	}
	if ds.Repetitions > 0 {
		buf.WriteString(p.update.Sprintf(" %d %s.", ds.Repetitions, plural(ds.Repetitions, "repetition change")))
	}
	if ds.Weight > 0 {
		buf.WriteString(p.neutral.Sprintf(" distance %.3f.", ds.Distance()))
	}

	buf.WriteRune('\n')
	return buf.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
