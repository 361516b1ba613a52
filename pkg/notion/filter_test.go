package notion_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

func TestFilter_MarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter notion.Filter
		want   string
	}{
		{
			name:   "leaf",
			filter: notion.Where("Status", notion.KindStatus, "equals", "Done"),
			want:   `{"property":"Status","status":{"equals":"Done"}}`,
		},
		{
			name:   "unary condition",
			filter: notion.Where("Due", notion.KindDate, "is_empty", nil),
			want:   `{"property":"Due","date":{"is_empty":true}}`,
		},
		{
			name: "nested compound",
			filter: notion.Or(
				notion.Where("Done", notion.KindCheckbox, "equals", true),
				notion.And(
					notion.Where("Tags", notion.KindMultiSelect, "contains", "urgent"),
					notion.Where("Estimate", notion.KindNumber, "greater_than", 3),
				),
			),
			want: `{"or":[
				{"property":"Done","checkbox":{"equals":true}},
				{"and":[
					{"property":"Tags","multi_select":{"contains":"urgent"}},
					{"property":"Estimate","number":{"greater_than":3}}
				]}
			]}`,
		},
		{
			name:   "raw passthrough",
			filter: notion.RawFilter(json.RawMessage(`{"timestamp":"created_time","created_time":{"past_week":{}}}`)),
			want:   `{"timestamp":"created_time","created_time":{"past_week":{}}}`,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			data, err := json.Marshal(testCase.filter)
			require.NoError(t, err)
			assert.JSONEq(t, testCase.want, string(data))
		})
	}
}

func TestFilter_MarshalJSON_Invalid(t *testing.T) {
	t.Parallel()

	_, err := json.Marshal(notion.Filter{})
	require.ErrorIs(t, err, notion.ErrInvalidFilter)

	_, err = json.Marshal(notion.Where("Status", notion.KindSelect, "", "Done"))
	require.ErrorIs(t, err, notion.ErrInvalidFilter)

	_, err = json.Marshal(notion.RawFilter(json.RawMessage(`{"broken"`)))
	require.ErrorIs(t, err, notion.ErrInvalidRawFilter)
}

func TestSort_MarshalJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal([]notion.Sort{
		notion.SortBy("Due", notion.Descending),
		{Timestamp: "last_edited_time", Direction: notion.Ascending},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"property":"Due","direction":"descending"},
		{"timestamp":"last_edited_time","direction":"ascending"}
	]`, string(data))
}
