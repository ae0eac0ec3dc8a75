package engine

import "strings"

// CreditLine is one credit line decoded from a record's grouped-credits
// blob.
type CreditLine struct {
	TypeCode    string
	Description string
}

// Label is the grouping key used by the credit-type aggregation.
func (c CreditLine) Label() string {
	if c.Description != "" {
		return c.TypeCode + " - " + c.Description
	}
	return c.TypeCode
}

const creditSegmentPrefix = "CREDITO:"

// ParseCreditLines decodes the core's delimiter-encoded credits blob.
//
// Grammar: records separated by '#'; only segments starting with "CREDITO:"
// are credit lines; within a segment, fields are |KEY:value| pairs, of
// which TCRE (type code) is required and DESC06 (description) optional.
// Segments missing TCRE are skipped; a fully malformed blob parses to an
// empty list. Parsing never fails.
func ParseCreditLines(raw string) []CreditLine {
	if raw == "" {
		return nil
	}
	var lines []CreditLine
	for _, segment := range strings.Split(raw, "#") {
		segment = strings.TrimSpace(segment)
		if !strings.HasPrefix(segment, creditSegmentPrefix) {
			continue
		}
		fields := parseSegmentFields(segment)
		tcre := strings.TrimSpace(fields["TCRE"])
		if tcre == "" {
			continue
		}
		lines = append(lines, CreditLine{
			TypeCode:    tcre,
			Description: strings.TrimSpace(fields["DESC06"]),
		})
	}
	return lines
}

func parseSegmentFields(segment string) map[string]string {
	fields := make(map[string]string)
	for _, token := range strings.Split(segment, "|") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		key, value, ok := strings.Cut(token, ":")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = value
	}
	return fields
}
