package catalog

import (
	"encoding/json"
	"testing"
)

func TestParamsJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []Param
		want string
	}{
		{name: "empty", in: nil, want: `{}`},
		{name: "single", in: []Param{{"color", "red"}}, want: `{"color":"red"}`},
		{
			name: "order preserved",
			in:   []Param{{"z", "1"}, {"a", "2"}},
			want: `{"z":"1","a":"2"}`,
		},
		{
			name: "quote escaped",
			in:   []Param{{"note", `she said "hi"`}},
			want: `{"note":"she said \"hi\""}`,
		},
		{
			name: "backslash escaped",
			in:   []Param{{`a\b`, `C:\dir`}},
			want: `{"a\\b":"C:\\dir"}`,
		},
		{
			name: "non-ascii untouched",
			in:   []Param{{"Цвет", "красный <b>&"}},
			want: `{"Цвет":"красный <b>&"}`,
		},
		{
			name: "control characters untouched",
			in:   []Param{{"tab", "a\tb"}},
			want: "{\"tab\":\"a\tb\"}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParamsJSON(tt.in); got != tt.want {
				t.Fatalf("ParamsJSON()=%s want %s", got, tt.want)
			}
		})
	}
}

func TestParamsJSON_QuotesRoundTripThroughDecoder(t *testing.T) {
	t.Parallel()

	in := []Param{{"note", `she said "hi"`}, {"path", `C:\x`}}
	var got map[string]string
	if err := json.Unmarshal([]byte(ParamsJSON(in)), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["note"] != `she said "hi"` || got["path"] != `C:\x` {
		t.Fatalf("decoded=%v", got)
	}
}
