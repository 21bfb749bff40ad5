// Package xcal converts iCalendar objects into their XML representation
// (RFC 6321).
package xcal

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"github.com/emersion/go-ical"
)

// Namespace is the xCal namespace
const Namespace = "urn:ietf:params:xml:ns:icalendar-2.0"

// Value type element names
const (
	typeText     = "text"
	typeDate     = "date"
	typeDateTime = "date-time"
	typeRecur    = "recur"
)

// date-valued properties
var dateProps = map[string]bool{
	ical.PropDateTimeStart:   true,
	ical.PropDateTimeEnd:     true,
	ical.PropDateTimeStamp:   true,
	ical.PropRecurrenceDates: true,
	ical.PropExceptionDates:  true,
	ical.PropRecurrenceID:    true,
	ical.PropCreated:         true,
	ical.PropLastModified:    true,
}

// recur-valued properties
var recurProps = map[string]bool{
	ical.PropRecurrenceRule: true,
	"EXRULE":                true,
}

// recur parts that hold comma separated lists
var listParts = map[string]bool{
	"BYSECOND": true, "BYMINUTE": true, "BYHOUR": true, "BYDAY": true,
	"BYMONTHDAY": true, "BYYEARDAY": true, "BYWEEKNO": true, "BYMONTH": true,
	"BYSETPOS": true,
}

// Encode builds the xCal document for cal.
func Encode(cal *ical.Calendar) (*etree.Document, error) {
	if cal == nil || cal.Component == nil {
		return nil, fmt.Errorf("xcal: nil calendar")
	}
	if cal.Name != ical.CompCalendar {
		return nil, fmt.Errorf("xcal: expected %s, got %s", ical.CompCalendar, cal.Name)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("icalendar")
	root.CreateAttr("xmlns", Namespace)

	if err := encodeComponent(root, cal.Component); err != nil {
		return nil, err
	}
	return doc, nil
}

// Write encodes cal and writes it to w, indented.
func Write(w io.Writer, cal *ical.Calendar) error {
	doc, err := Encode(cal)
	if err != nil {
		return err
	}
	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("xcal: failed to write document: %w", err)
	}
	return nil
}

func encodeComponent(parent *etree.Element, comp *ical.Component) error {
	el := parent.CreateElement(strings.ToLower(comp.Name))

	if len(comp.Props) > 0 {
		props := el.CreateElement("properties")
		for _, name := range slices.Sorted(maps.Keys(comp.Props)) {
			for _, prop := range comp.Props[name] {
				if err := encodeProp(props, &prop); err != nil {
					return err
				}
			}
		}
	}

	if len(comp.Children) > 0 {
		components := el.CreateElement("components")
		for _, child := range comp.Children {
			if err := encodeComponent(components, child); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeProp(parent *etree.Element, prop *ical.Prop) error {
	el := parent.CreateElement(strings.ToLower(prop.Name))

	var params []string
	for name := range prop.Params {
		if name != ical.ParamValue {
			params = append(params, name)
		}
	}
	if len(params) > 0 {
		slices.Sort(params)
		paramsEl := el.CreateElement("parameters")
		for _, name := range params {
			paramEl := paramsEl.CreateElement(strings.ToLower(name))
			for _, v := range prop.Params[name] {
				paramEl.CreateElement(typeText).SetText(v)
			}
		}
	}

	switch {
	case recurProps[prop.Name]:
		return encodeRecur(el, prop.Value)
	case dateProps[prop.Name]:
		for _, v := range strings.Split(prop.Value, ",") {
			kind, formatted, err := formatDate(v, prop.Params.Get(ical.ParamValue))
			if err != nil {
				return fmt.Errorf("xcal: property %s: %w", prop.Name, err)
			}
			el.CreateElement(kind).SetText(formatted)
		}
	default:
		el.CreateElement(typeText).SetText(prop.Value)
	}
	return nil
}

func encodeRecur(parent *etree.Element, value string) error {
	recur := parent.CreateElement(typeRecur)
	for _, part := range strings.Split(value, ";") {
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return fmt.Errorf("xcal: malformed recur part %q", part)
		}
		key = strings.ToUpper(key)

		values := []string{val}
		if listParts[key] {
			values = strings.Split(val, ",")
		}
		for _, v := range values {
			if key == "UNTIL" {
				_, formatted, err := formatDate(v, "")
				if err != nil {
					return fmt.Errorf("xcal: recur until: %w", err)
				}
				v = formatted
			}
			recur.CreateElement(strings.ToLower(key)).SetText(v)
		}
	}
	return nil
}

// formatDate turns the basic iCalendar form (20240101T120000Z) into the
// extended one xCal uses (2024-01-01T12:00:00Z).
func formatDate(v, valueType string) (string, string, error) {
	switch {
	case len(v) == 8 && valueType != string(ical.ValueDateTime):
		return typeDate, v[0:4] + "-" + v[4:6] + "-" + v[6:8], nil
	case len(v) == 15 || (len(v) == 16 && v[15] == 'Z'):
		if v[8] != 'T' {
			break
		}
		out := v[0:4] + "-" + v[4:6] + "-" + v[6:8] + "T" + v[9:11] + ":" + v[11:13] + ":" + v[13:15]
		if len(v) == 16 {
			out += "Z"
		}
		return typeDateTime, out, nil
	}
	return "", "", fmt.Errorf("malformed date %q", v)
}
