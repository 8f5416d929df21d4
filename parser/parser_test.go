package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaisan-bot/model"
)

func kaisan(tgt model.Target, tr model.TimeRange) model.Command {
	return model.Command{Kind: model.CommandKaisan, Target: tgt, Time: tr}
}

func after(h, m, sec int) model.TimeSpec {
	return model.TimeSpec{Kind: model.SpecAfter, After: model.AfterSpec{Hours: h, Minutes: m, Seconds: sec}}
}

func atHM(h, m int) model.TimeSpec {
	return model.TimeSpec{Kind: model.SpecAt, At: model.AtSpec{Hour: h, Minute: m, HasHour: true, HasMinute: true}}
}

func TestParseKaisan(t *testing.T) {
	t.Parallel()

	all := model.Target{Kind: model.TargetAll}
	me := model.Target{Kind: model.TargetMe}

	tests := []struct {
		name  string
		input string
		want  model.Command
	}{
		{
			name:  "after minutes english",
			input: "me after 10min",
			want:  kaisan(me, model.TimeRange{Spec: after(0, 10, 0)}),
		},
		{
			name:  "after minutes japanese",
			input: "10分後",
			want:  kaisan(all, model.TimeRange{Spec: after(0, 10, 0)}),
		},
		{
			name:  "after minutes japanese with target",
			input: "私を10分後に解散",
			want:  kaisan(me, model.TimeRange{Spec: after(0, 10, 0)}),
		},
		{
			name:  "kanji number",
			input: "十五分後",
			want:  kaisan(all, model.TimeRange{Spec: after(0, 15, 0)}),
		},
		{
			name:  "kanji tens and units",
			input: "二十三分後",
			want:  kaisan(all, model.TimeRange{Spec: after(0, 23, 0)}),
		},
		{
			name:  "hours with trailing minutes",
			input: "after 1h30m",
			want:  kaisan(all, model.TimeRange{Spec: after(1, 30, 0)}),
		},
		{
			name:  "hours japanese",
			input: "1時間後",
			want:  kaisan(all, model.TimeRange{Spec: after(1, 0, 0)}),
		},
		{
			name:  "seconds",
			input: "after 45sec",
			want:  kaisan(all, model.TimeRange{Spec: after(0, 0, 45)}),
		},
		{
			name:  "within is a range",
			input: "within 90min",
			want:  kaisan(all, model.TimeRange{Spec: after(0, 90, 0), By: true}),
		},
		{
			name:  "japanese within",
			input: "90分以内",
			want:  kaisan(all, model.TimeRange{Spec: after(0, 90, 0), By: true}),
		},
		{
			name:  "duration with made is a range",
			input: "90分後まで",
			want:  kaisan(all, model.TimeRange{Spec: after(0, 90, 0), By: true}),
		},
		{
			name:  "at colon time",
			input: "at 23:30",
			want:  kaisan(all, model.TimeRange{Spec: atHM(23, 30)}),
		},
		{
			name:  "by colon time",
			input: "by 23:00",
			want:  kaisan(all, model.TimeRange{Spec: atHM(23, 0), By: true}),
		},
		{
			name:  "bare colon time",
			input: "23:30",
			want:  kaisan(all, model.TimeRange{Spec: atHM(23, 30)}),
		},
		{
			name:  "colon time with made",
			input: "23:30まで",
			want:  kaisan(all, model.TimeRange{Spec: atHM(23, 30), By: true}),
		},
		{
			name:  "colon time tomorrow",
			input: "at 9:30 tomorrow",
			want: kaisan(all, model.TimeRange{Spec: model.TimeSpec{Kind: model.SpecAt,
				At: model.AtSpec{Hour: 9, Minute: 30, HasHour: true, HasMinute: true, Tomorrow: true}}}),
		},
		{
			name:  "hour japanese",
			input: "23時",
			want: kaisan(all, model.TimeRange{Spec: model.TimeSpec{Kind: model.SpecAt,
				At: model.AtSpec{Hour: 23, HasHour: true}}}),
		},
		{
			name:  "hour and half",
			input: "23時半まで",
			want: kaisan(all, model.TimeRange{Spec: model.TimeSpec{Kind: model.SpecAt,
				At: model.AtSpec{Hour: 23, Minute: 30, HasHour: true, HasMinute: true}}, By: true}),
		},
		{
			name:  "hour and minute japanese",
			input: "23時15分",
			want:  kaisan(all, model.TimeRange{Spec: atHM(23, 15)}),
		},
		{
			name:  "minute only",
			input: "45分",
			want: kaisan(all, model.TimeRange{Spec: model.TimeSpec{Kind: model.SpecAt,
				At: model.AtSpec{Minute: 45, HasMinute: true}}}),
		},
		{
			name:  "bare half",
			input: "半",
			want: kaisan(all, model.TimeRange{Spec: model.TimeSpec{Kind: model.SpecAt,
				At: model.AtSpec{Minute: 30, HasMinute: true}}}),
		},
		{
			name:  "tomorrow japanese",
			input: "明日の1時",
			want: kaisan(all, model.TimeRange{Spec: model.TimeSpec{Kind: model.SpecAt,
				At: model.AtSpec{Hour: 1, HasHour: true, Tomorrow: true}}}),
		},
		{
			name:  "tomorrow with minutes",
			input: "明日の10時15分まで",
			want: kaisan(all, model.TimeRange{Spec: model.TimeSpec{Kind: model.SpecAt,
				At: model.AtSpec{Hour: 10, Minute: 15, HasHour: true, HasMinute: true, Tomorrow: true}}, By: true}),
		},
		{
			name:  "now",
			input: "now",
			want:  kaisan(all, model.TimeRange{Spec: model.TimeSpec{Kind: model.SpecNow}}),
		},
		{
			name:  "now japanese",
			input: "今すぐ",
			want:  kaisan(all, model.TimeRange{Spec: model.TimeSpec{Kind: model.SpecNow}}),
		},
		{
			name:  "trailing kaisan word",
			input: "全員を10分後に解散",
			want:  kaisan(all, model.TimeRange{Spec: after(0, 10, 0)}),
		},
		{
			name:  "target after time",
			input: "10分後に私を解散",
			want:  kaisan(me, model.TimeRange{Spec: after(0, 10, 0)}),
		},
		{
			name:  "mention targets",
			input: "<@123> <@!456> after 5min",
			want: kaisan(model.Target{Kind: model.TargetUsers, UserIDs: []string{"123", "456"}},
				model.TimeRange{Spec: after(0, 5, 0)}),
		},
		{
			name:  "remind override",
			input: "within 1hour remind 10,5",
			want: model.Command{
				Kind:           model.CommandKaisan,
				Target:         all,
				Time:           model.TimeRange{Spec: after(1, 0, 0), By: true},
				RemindOverride: []int{10, 5},
			},
		},
		{
			name:  "remind override with spaced commas",
			input: "10分後 remind 10, 5",
			want: model.Command{
				Kind:           model.CommandKaisan,
				Target:         all,
				Time:           model.TimeRange{Spec: after(0, 10, 0)},
				RemindOverride: []int{10, 5},
			},
		},
		{
			name:  "fullwidth spaces",
			input: "みんな　10分後　解散",
			want:  kaisan(all, model.TimeRange{Spec: after(0, 10, 0)}),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRFC3339(t *testing.T) {
	t.Parallel()

	got, err := Parse("rfc3339 2026-09-01T12:00:00+09:00")
	require.NoError(t, err)
	require.Equal(t, model.SpecExact, got.Time.Spec.Kind)
	want := time.Date(2026, 9, 1, 12, 0, 0, 0, time.FixedZone("", 9*3600))
	assert.True(t, want.Equal(got.Time.Spec.Exact))
}

func TestParseSubcommands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  model.Command
	}{
		{"help", "help", model.Command{Kind: model.CommandHelp}},
		{"show setting", "show-setting", model.Command{Kind: model.CommandShowSetting}},
		{"status", "status", model.Command{Kind: model.CommandStatus}},
		{"timezone", "timezone Asia/Tokyo", model.Command{Kind: model.CommandTimezone, Timezone: "Asia/Tokyo"}},
		{"require permission", "require-permission true", model.Command{Kind: model.CommandRequirePermission, Flag: true}},
		{"remind random off", "remind-random false", model.Command{Kind: model.CommandRemindRandom}},
		{"add reminder", "add-reminder 10", model.Command{Kind: model.CommandAddReminder, Minutes: 10}},
		{"remove reminder", "remove-reminder 5", model.Command{Kind: model.CommandRemoveReminder, Minutes: 5}},
		{"cancel", "cancel 0c06d1f0-1234-4d89-9e7e-000000000000", model.Command{Kind: model.CommandCancel, TaskID: "0c06d1f0-1234-4d89-9e7e-000000000000"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		kind  ErrorKind
	}{
		{"empty", "", Malformed},
		{"garbage", "foobar", Malformed},
		{"minute over 59", "90分", Malformed},
		{"bare hour over 23", "at 30:00", Malformed},
		{"tomorrow without hour", "明日の15分", Malformed},
		{"unknown unit", "after 10lightyears", UnknownUnit},
		{"target twice", "me 10分後 全員", AmbiguousTarget},
		{"trailing junk", "10分後 xyz", Malformed},
		{"timezone missing arg", "timezone", Malformed},
		{"bool garbage", "require-permission maybe", Malformed},
		{"reminder zero", "add-reminder 0", Malformed},
		{"remind override zero", "10分後 remind 0", Malformed},
		{"bad rfc3339", "rfc3339 yesterday", Malformed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.input)
			require.Error(t, err)
			var perr *Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.kind, perr.Kind, "got %q", perr.Msg)
		})
	}
}

func TestParseDeterministic(t *testing.T) {
	t.Parallel()

	first, err := Parse("within 30min")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		got, err := Parse("within 30min")
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}
