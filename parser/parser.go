// Package parser turns free-form kaisan command text into a typed
// model.Command. Parsing is pure: no session, store, or clock access.
//
// The grammar accepts English and Japanese surface forms:
//
//	[target] <time-range> [に] [target] [解散] [remind N[,N...]]
//	at 18:00 / by 18:00 / after 1h30m / within 90min / now
//	10分後 / 10分後まで / 90分以内 / 18時半まで / 明日の10時15分 / 今すぐ
//
// plus the settings subcommands (help, show-setting, timezone,
// require-permission, add-reminder, remove-reminder, remind-random,
// cancel, status).
package parser

import (
	"strconv"
	"strings"
	"time"

	"kaisan-bot/model"
)

// Parse parses one command string. It is total and deterministic: the
// same input always yields the same command or the same error.
func Parse(text string) (model.Command, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Command{}, malformed("empty command")
	}
	if cmd, ok, err := parseSubcommand(text); ok {
		if err != nil {
			return model.Command{}, err
		}
		return cmd, nil
	}
	s := &scanner{in: []rune(text)}
	cmd, perr := s.parseKaisan()
	if perr != nil {
		return model.Command{}, perr
	}
	return cmd, nil
}

func parseSubcommand(text string) (model.Command, bool, error) {
	fields := strings.Fields(text)
	keyword := strings.ToLower(fields[0])

	wantArgs := func(n int) error {
		if len(fields) != n+1 {
			return malformed("%s takes %d argument(s)", keyword, n)
		}
		return nil
	}

	switch keyword {
	case "help":
		return model.Command{Kind: model.CommandHelp}, true, wantArgs(0)
	case "show-setting":
		return model.Command{Kind: model.CommandShowSetting}, true, wantArgs(0)
	case "status":
		return model.Command{Kind: model.CommandStatus}, true, wantArgs(0)
	case "timezone":
		if err := wantArgs(1); err != nil {
			return model.Command{}, true, err
		}
		return model.Command{Kind: model.CommandTimezone, Timezone: fields[1]}, true, nil
	case "require-permission", "remind-random":
		if err := wantArgs(1); err != nil {
			return model.Command{}, true, err
		}
		flag, err := strconv.ParseBool(strings.ToLower(fields[1]))
		if err != nil {
			return model.Command{}, true, malformed("%s expects true or false", keyword)
		}
		kind := model.CommandRequirePermission
		if keyword == "remind-random" {
			kind = model.CommandRemindRandom
		}
		return model.Command{Kind: kind, Flag: flag}, true, nil
	case "add-reminder", "remove-reminder":
		if err := wantArgs(1); err != nil {
			return model.Command{}, true, err
		}
		minutes, err := strconv.Atoi(fields[1])
		if err != nil || minutes <= 0 {
			return model.Command{}, true, malformed("%s expects a positive minute count", keyword)
		}
		kind := model.CommandAddReminder
		if keyword == "remove-reminder" {
			kind = model.CommandRemoveReminder
		}
		return model.Command{Kind: kind, Minutes: minutes}, true, nil
	case "cancel":
		if err := wantArgs(1); err != nil {
			return model.Command{}, true, err
		}
		return model.Command{Kind: model.CommandCancel, TaskID: fields[1]}, true, nil
	}
	return model.Command{}, false, nil
}

type scanner struct {
	in  []rune
	pos int
}

func (s *scanner) eof() bool { return s.pos >= len(s.in) }

func (s *scanner) rest() string { return string(s.in[s.pos:]) }

func (s *scanner) skipSpaces() {
	for s.pos < len(s.in) && (s.in[s.pos] == ' ' || s.in[s.pos] == '　') {
		s.pos++
	}
}

// lit consumes w if the input continues with it exactly.
func (s *scanner) lit(w string) bool {
	r := []rune(w)
	if s.pos+len(r) > len(s.in) {
		return false
	}
	for i, c := range r {
		if s.in[s.pos+i] != c {
			return false
		}
	}
	s.pos += len(r)
	return true
}

// litFold is lit with ASCII case folding, for the English keywords.
func (s *scanner) litFold(w string) bool {
	r := []rune(w)
	if s.pos+len(r) > len(s.in) {
		return false
	}
	for i, c := range r {
		got := s.in[s.pos+i]
		if got >= 'A' && got <= 'Z' {
			got += 'a' - 'A'
		}
		if got != c {
			return false
		}
	}
	s.pos += len(r)
	return true
}

func (s *scanner) litAny(words ...string) bool {
	for _, w := range words {
		if s.litFold(w) {
			return true
		}
	}
	return false
}

// peekWord reads ahead over a run of letters without consuming, for
// unknown-unit diagnostics.
func (s *scanner) peekWord() string {
	end := s.pos
	for end < len(s.in) && end-s.pos < 16 && isLetter(s.in[end]) {
		end++
	}
	return string(s.in[s.pos:end])
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 0x2FFF
}

// Unit words. Longest forms first so "min" wins over "m".
var (
	minuteUnits = []string{"minutes", "minute", "min", "分", "m"}
	hourUnits   = []string{"hours", "hour", "hr", "時間", "h"}
	secondUnits = []string{"seconds", "second", "sec", "秒", "s"}
)

var (
	meWords  = []string{"私", "わたし", "俺", "おれ", "オレ", "僕", "ぼく", "ボク"}
	allWords = []string{"全員", "みんな", "皆"}
)

func (s *scanner) parseKaisan() (model.Command, *Error) {
	// A leading target is optional and the words overlap the time
	// grammar, so try with one first and back off if the rest of the
	// command does not parse.
	start := s.pos
	if tgt, ok := s.target(); ok {
		cmd, err := s.kaisanRest(&tgt)
		if err == nil || err.Kind == AmbiguousTarget {
			return cmd, err
		}
		s.pos = start
	}
	return s.kaisanRest(nil)
}

func (s *scanner) kaisanRest(first *model.Target) (model.Command, *Error) {
	s.skipSpaces()
	if first != nil && s.lit("を") {
		s.skipSpaces()
	}

	tr, err := s.timeRange()
	if err != nil {
		return model.Command{}, err
	}

	s.skipSpaces()
	if s.lit("に") {
		s.skipSpaces()
	}

	var second *model.Target
	if tgt, ok := s.target(); ok {
		second = &tgt
		s.skipSpaces()
		if s.lit("を") {
			s.skipSpaces()
		}
	}
	s.lit("解散")
	s.skipSpaces()

	override, err := s.remindOverride()
	if err != nil {
		return model.Command{}, err
	}
	s.skipSpaces()
	if !s.eof() {
		return model.Command{}, malformed("unexpected input: %q", s.rest())
	}

	target := model.Target{Kind: model.TargetAll}
	switch {
	case first != nil && second != nil:
		return model.Command{}, &Error{Kind: AmbiguousTarget, Msg: "target specified twice"}
	case first != nil:
		target = *first
	case second != nil:
		target = *second
	}

	return model.Command{
		Kind:           model.CommandKaisan,
		Target:         target,
		Time:           tr,
		RemindOverride: override,
	}, nil
}

func (s *scanner) target() (model.Target, bool) {
	if s.litFold("me") {
		return model.Target{Kind: model.TargetMe}, true
	}
	for _, w := range meWords {
		if s.lit(w) {
			return model.Target{Kind: model.TargetMe}, true
		}
	}
	if s.litFold("all") {
		return model.Target{Kind: model.TargetAll}, true
	}
	for _, w := range allWords {
		if s.lit(w) {
			return model.Target{Kind: model.TargetAll}, true
		}
	}

	var ids []string
	for {
		id, ok := s.mention()
		if !ok {
			break
		}
		ids = append(ids, id)
		s.skipSpaces()
	}
	if len(ids) > 0 {
		return model.Target{Kind: model.TargetUsers, UserIDs: ids}, true
	}
	return model.Target{}, false
}

func (s *scanner) mention() (string, bool) {
	save := s.pos
	if !s.lit("<@") {
		return "", false
	}
	s.lit("!")
	start := s.pos
	for s.pos < len(s.in) && s.in[s.pos] >= '0' && s.in[s.pos] <= '9' {
		s.pos++
	}
	if s.pos == start || s.eof() || s.in[s.pos] != '>' {
		s.pos = save
		return "", false
	}
	id := string(s.in[start:s.pos])
	s.pos++ // '>'
	return id, true
}

func (s *scanner) remindOverride() ([]int, *Error) {
	if !s.litFold("remind") {
		return nil, nil
	}
	s.skipSpaces()
	var offsets []int
	for {
		n, ok := s.asciiNumber(4)
		if !ok || n <= 0 {
			return nil, malformed("remind expects positive minute counts")
		}
		offsets = append(offsets, n)
		if !s.lit(",") {
			break
		}
		s.skipSpaces()
	}
	return offsets, nil
}

// timeRange parses one time expression and its by/within marker.
func (s *scanner) timeRange() (model.TimeRange, *Error) {
	if s.litAny("now", "今すぐ") {
		return model.TimeRange{Spec: model.TimeSpec{Kind: model.SpecNow}}, nil
	}

	// Number-headed forms: durations with 後/以内 and bare wall-clock
	// times. The two share the 分 suffix, so back off between branches.
	save := s.pos
	if x, ok := s.number(); ok {
		afterStart := s.pos
		if tr, ok2, err := s.rangeAfterSuffix(x); err != nil {
			return model.TimeRange{}, err
		} else if ok2 {
			return tr, nil
		}
		s.pos = afterStart

		if spec, ok2, err := s.specAtTail(x); err != nil {
			return model.TimeRange{}, err
		} else if ok2 {
			return model.TimeRange{Spec: spec, By: s.lit("まで")}, nil
		}
		s.pos = save
		return model.TimeRange{}, malformed("unrecognized time expression")
	}

	if spec, ok, err := s.specAtTomorrow(); err != nil {
		return model.TimeRange{}, err
	} else if ok {
		return model.TimeRange{Spec: spec, By: s.lit("まで")}, nil
	}
	if spec, ok, err := s.specRFC3339(); err != nil {
		return model.TimeRange{}, err
	} else if ok {
		return model.TimeRange{Spec: spec, By: s.lit("まで")}, nil
	}
	if s.lit("半") {
		spec := model.TimeSpec{Kind: model.SpecAt, At: model.AtSpec{Minute: 30, HasMinute: true}}
		return model.TimeRange{Spec: spec, By: s.lit("まで")}, nil
	}

	// "after" before "at": the latter is a prefix of the former.
	switch {
	case s.litFold("after"):
		s.skipSpaces()
		spec, err := s.specAfter()
		if err != nil {
			return model.TimeRange{}, err
		}
		return model.TimeRange{Spec: spec}, nil
	case s.litFold("within"):
		s.skipSpaces()
		spec, err := s.specAfter()
		if err != nil {
			return model.TimeRange{}, err
		}
		return model.TimeRange{Spec: spec, By: true}, nil
	case s.litFold("at"):
		s.skipSpaces()
		spec, err := s.specAt()
		if err != nil {
			return model.TimeRange{}, err
		}
		return model.TimeRange{Spec: spec}, nil
	case s.litFold("by"):
		s.skipSpaces()
		spec, err := s.specAt()
		if err != nil {
			return model.TimeRange{}, err
		}
		return model.TimeRange{Spec: spec, By: true}, nil
	}

	return model.TimeRange{}, malformed("unrecognized time expression")
}

// rangeAfterSuffix parses the Japanese duration range forms following a
// number: <dur>後, <dur>後まで, <dur>以内.
func (s *scanner) rangeAfterSuffix(x int) (model.TimeRange, bool, *Error) {
	s.skipSpaces()
	var after model.AfterSpec
	switch {
	case s.litAny(minuteUnits...):
		after = model.AfterSpec{Minutes: x}
	case s.litAny(hourUnits...):
		after = model.AfterSpec{Hours: x}
		if m, ok := s.trailingMinutes(); ok {
			after.Minutes = m
		}
	case s.litAny(secondUnits...):
		after = model.AfterSpec{Seconds: x}
	default:
		return model.TimeRange{}, false, nil
	}
	s.skipSpaces()

	spec := model.TimeSpec{Kind: model.SpecAfter, After: after}
	switch {
	case s.lit("後"):
		return model.TimeRange{Spec: spec, By: s.lit("まで")}, true, nil
	case s.lit("以内"):
		return model.TimeRange{Spec: spec, By: true}, true, nil
	}
	return model.TimeRange{}, false, nil
}

// trailingMinutes parses the optional "30m"/"30分" after an hour count.
func (s *scanner) trailingMinutes() (int, bool) {
	save := s.pos
	s.skipSpaces()
	if m, ok := s.number(); ok {
		s.skipSpaces()
		if s.litAny(minuteUnits...) {
			return m, true
		}
	}
	s.pos = save
	return 0, false
}

// specAfter parses a duration for the after/within keyword forms.
func (s *scanner) specAfter() (model.TimeSpec, *Error) {
	x, ok := s.number()
	if !ok {
		return model.TimeSpec{}, malformed("duration expected")
	}
	s.skipSpaces()

	var after model.AfterSpec
	switch {
	case s.litAny(minuteUnits...):
		after = model.AfterSpec{Minutes: x}
	case s.litAny(hourUnits...):
		after = model.AfterSpec{Hours: x}
		if m, ok := s.trailingMinutes(); ok {
			after.Minutes = m
		}
	case s.litAny(secondUnits...):
		after = model.AfterSpec{Seconds: x}
	default:
		if w := s.peekWord(); w != "" {
			return model.TimeSpec{}, &Error{Kind: UnknownUnit, Msg: "unknown time unit " + strconv.Quote(w)}
		}
		return model.TimeSpec{}, malformed("time unit expected")
	}
	return model.TimeSpec{Kind: model.SpecAfter, After: after}, nil
}

// specAt parses a wall-clock time for the at/by keyword forms.
func (s *scanner) specAt() (model.TimeSpec, *Error) {
	if x, ok := s.number(); ok {
		spec, ok2, err := s.specAtTail(x)
		if err != nil {
			return model.TimeSpec{}, err
		}
		if !ok2 {
			return model.TimeSpec{}, malformed("wall-clock time expected")
		}
		return spec, nil
	}
	if spec, ok, err := s.specAtTomorrow(); err != nil || ok {
		return spec, err
	}
	if spec, ok, err := s.specRFC3339(); err != nil || ok {
		return spec, err
	}
	if s.lit("半") {
		return model.TimeSpec{Kind: model.SpecAt, At: model.AtSpec{Minute: 30, HasMinute: true}}, nil
	}
	return model.TimeSpec{}, malformed("wall-clock time expected")
}

// specAtTail parses what may follow a leading number in a wall-clock
// expression: ":MM [tomorrow]", "分", or "時[半|M分]".
func (s *scanner) specAtTail(x int) (model.TimeSpec, bool, *Error) {
	if s.lit(":") {
		m, ok := s.asciiNumber(2)
		if !ok {
			if m, ok = s.kanjiNumber(); !ok {
				return model.TimeSpec{}, false, malformed("minute expected after %d:", x)
			}
		}
		if x > 23 {
			return model.TimeSpec{}, false, malformed("invalid hour %d", x)
		}
		if m > 59 {
			return model.TimeSpec{}, false, malformed("invalid minute %d", m)
		}
		s.skipSpaces()
		tomorrow := s.litFold("tomorrow")
		at := model.AtSpec{Hour: x, Minute: m, HasHour: true, HasMinute: true, Tomorrow: tomorrow}
		return model.TimeSpec{Kind: model.SpecAt, At: at}, true, nil
	}

	save := s.pos
	s.skipSpaces()
	if s.lit("分") {
		if x > 59 {
			return model.TimeSpec{}, false, malformed("invalid minute %d", x)
		}
		at := model.AtSpec{Minute: x, HasMinute: true}
		return model.TimeSpec{Kind: model.SpecAt, At: at}, true, nil
	}
	if s.lit("時") {
		if x > 23 {
			return model.TimeSpec{}, false, malformed("invalid hour %d", x)
		}
		s.skipSpaces()
		at := model.AtSpec{Hour: x, HasHour: true}
		if m, ok, err := s.specMinute(); err != nil {
			return model.TimeSpec{}, false, err
		} else if ok {
			at.Minute = m
			at.HasMinute = true
		}
		return model.TimeSpec{Kind: model.SpecAt, At: at}, true, nil
	}
	s.pos = save
	return model.TimeSpec{}, false, nil
}

// specMinute parses the optional minute part after 時: 半 or M分.
func (s *scanner) specMinute() (int, bool, *Error) {
	if s.lit("半") {
		return 30, true, nil
	}
	save := s.pos
	if m, ok := s.number(); ok {
		s.skipSpaces()
		if s.lit("分") {
			if m > 59 {
				return 0, false, malformed("invalid minute %d", m)
			}
			return m, true, nil
		}
	}
	s.pos = save
	return 0, false, nil
}

func (s *scanner) specAtTomorrow() (model.TimeSpec, bool, *Error) {
	if !s.lit("明日の") {
		return model.TimeSpec{}, false, nil
	}
	h, ok := s.number()
	if !ok {
		return model.TimeSpec{}, false, malformed("hour expected after 明日の")
	}
	if h > 23 {
		return model.TimeSpec{}, false, malformed("invalid hour %d", h)
	}
	at := model.AtSpec{Hour: h, HasHour: true, Tomorrow: true}

	if s.lit(":") {
		m, ok := s.asciiNumber(2)
		if !ok {
			if m, ok = s.kanjiNumber(); !ok {
				return model.TimeSpec{}, false, malformed("minute expected after %d:", h)
			}
		}
		if m > 59 {
			return model.TimeSpec{}, false, malformed("invalid minute %d", m)
		}
		at.Minute = m
		at.HasMinute = true
		return model.TimeSpec{Kind: model.SpecAt, At: at}, true, nil
	}

	s.skipSpaces()
	if !s.lit("時") {
		// 明日の with only a minute ("明日の15分") has no meaning.
		return model.TimeSpec{}, false, malformed("hour expected after 明日の")
	}
	s.skipSpaces()
	if m, ok, err := s.specMinute(); err != nil {
		return model.TimeSpec{}, false, err
	} else if ok {
		at.Minute = m
		at.HasMinute = true
	}
	return model.TimeSpec{Kind: model.SpecAt, At: at}, true, nil
}

func (s *scanner) specRFC3339() (model.TimeSpec, bool, *Error) {
	if !s.litFold("rfc3339") {
		return model.TimeSpec{}, false, nil
	}
	s.skipSpaces()
	start := s.pos
	for s.pos < len(s.in) && isRFC3339Rune(s.in[s.pos]) {
		s.pos++
	}
	t, err := time.Parse(time.RFC3339, string(s.in[start:s.pos]))
	if err != nil {
		return model.TimeSpec{}, false, malformed("invalid rfc3339 time")
	}
	return model.TimeSpec{Kind: model.SpecExact, Exact: t}, true, nil
}

func isRFC3339Rune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r == 'T' || r == 'Z' || r == '+' || r == '-' || r == '.' || r == ':':
		return true
	}
	return false
}
