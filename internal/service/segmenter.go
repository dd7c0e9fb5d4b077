package service

import (
	"alcyxob/bmi-coach/internal/domain"
	"regexp"
	"strings"
)

// weekHeadingPattern matches the plan headings the generator asks the model
// for ("WEEK 1:"), tolerating case, spacing and a trailing dash instead of a
// colon. Model output is not contractually guaranteed to follow the requested
// grammar, so parsing stays best-effort. Only horizontal whitespace may follow
// the number: a colon-less heading must not swallow a dash on the next line.
var weekHeadingPattern = regexp.MustCompile(`(?i)week[ \t]*(\d{1,2})[ \t]*[:\-]?`)

// SegmentPlan partitions raw plan text into per-week sections.
//
// It is a pure function: identical input always yields an identical WeekMap,
// and the result always contains exactly the keys 1..PlanWeekCount. A week
// with no parseable content maps to "". When no heading is found at all, the
// entire text goes under week 1 so nothing is silently dropped. Heading
// numbers outside 1..PlanWeekCount are ignored; a duplicated week number is
// processed in scan order, so the later section wins.
func SegmentPlan(raw string) domain.WeekMap {
	weeks := make(domain.WeekMap, domain.PlanWeekCount)
	for w := 1; w <= domain.PlanWeekCount; w++ {
		weeks[w] = ""
	}

	text := normalizeLineEndings(raw)

	type heading struct {
		week  int
		start int // index of the heading itself
		end   int // index just past the heading
	}

	var headings []heading
	for _, m := range weekHeadingPattern.FindAllStringSubmatchIndex(text, -1) {
		week := parseWeekNumber(text[m[2]:m[3]])
		if week < 1 || week > domain.PlanWeekCount {
			continue
		}
		headings = append(headings, heading{week: week, start: m[0], end: m[1]})
	}

	if len(headings) == 0 {
		weeks[1] = strings.TrimSpace(text)
		return weeks
	}

	for i, h := range headings {
		sectionEnd := len(text)
		if i+1 < len(headings) {
			sectionEnd = headings[i+1].start
		}
		weeks[h.week] = strings.TrimSpace(text[h.end:sectionEnd])
	}

	return weeks
}

// SelectWeek returns the section text for the requested week, clamped to the
// valid range. An empty section falls back to the full raw plan text so the
// caller never renders a blank view while a plan exists.
func SelectWeek(weeks domain.WeekMap, raw string, week int) string {
	section := weeks[ClampWeek(week)]
	if strings.TrimSpace(section) == "" {
		return strings.TrimSpace(raw)
	}
	return section
}

// ClampWeek maps any integer onto the valid week range 1..PlanWeekCount.
func ClampWeek(week int) int {
	if week < 1 {
		return 1
	}
	if week > domain.PlanWeekCount {
		return domain.PlanWeekCount
	}
	return week
}

func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func parseWeekNumber(digits string) int {
	n := 0
	for _, r := range digits {
		n = n*10 + int(r-'0')
	}
	return n
}
